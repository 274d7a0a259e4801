// Copyright © 2024 Salone Skills Connect. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/openimsdk/tools/apiresp"
	"github.com/openimsdk/tools/log"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// HealthResp 进程与主机的粗略负载
type HealthResp struct {
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
}

// healthz 主机指标读取失败不影响存活判断
func healthz(c *gin.Context) {
	resp := HealthResp{Goroutines: runtime.NumGoroutine()}
	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		resp.CPUPercent = percent[0]
	} else if err != nil {
		log.ZDebug(c.Request.Context(), "cpu percent", "err", err)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemoryPercent = vm.UsedPercent
	} else {
		log.ZDebug(c.Request.Context(), "virtual memory", "err", err)
	}
	apiresp.GinSuccess(c, &resp)
}
