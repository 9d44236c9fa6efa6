package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/scenecore/ecs"
	"gopkg.in/yaml.v3"
)

type Report struct {
	// Configuration
	Duration time.Duration
	Entities int
	Depth    int
	Systems  int
	Workers  int
	Seed     uint64

	// Results
	TotalUpdates   int64
	TotalTime      time.Duration
	UpdateTime     Stats
	FinalEntities  int
	Expired        int
	Respawned      int
	SystemStats    []ecs.SystemStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P99     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))

	sorted := slices.Clone(s.Samples)
	slices.Sort(sorted)
	s.P99 = sorted[len(sorted)*99/100]
}

// summary is the machine-readable form of a Report.
type summary struct {
	Config struct {
		Duration string `yaml:"duration"`
		Entities int    `yaml:"entities"`
		Depth    int    `yaml:"depth"`
		Systems  int    `yaml:"systems"`
		Workers  int    `yaml:"workers"`
		Seed     uint64 `yaml:"seed"`
	} `yaml:"config"`
	Frames struct {
		Count int64  `yaml:"count"`
		Total string `yaml:"total"`
		Avg   string `yaml:"avg"`
		Min   string `yaml:"min"`
		Max   string `yaml:"max"`
		P99   string `yaml:"p99"`
	} `yaml:"frames"`
	Entities struct {
		Final     int `yaml:"final"`
		Expired   int `yaml:"expired"`
		Respawned int `yaml:"respawned"`
	} `yaml:"entities"`
	Systems []systemSummary `yaml:"systems"`
	Memory  struct {
		HeapAllocDelta  int64  `yaml:"heap_alloc_delta"`
		TotalAllocDelta int64  `yaml:"total_alloc_delta"`
		NumGC           uint32 `yaml:"num_gc"`
		GCPause         string `yaml:"gc_pause,omitempty"`
	} `yaml:"memory"`
}

type systemSummary struct {
	Name       string `yaml:"name"`
	Priority   int    `yaml:"priority"`
	Executions int64  `yaml:"executions"`
	Avg        string `yaml:"avg"`
	Max        string `yaml:"max"`
}

func (r *Report) summary() summary {
	var s summary
	s.Config.Duration = r.Duration.String()
	s.Config.Entities = r.Entities
	s.Config.Depth = r.Depth
	s.Config.Systems = r.Systems
	s.Config.Workers = r.Workers
	s.Config.Seed = r.Seed

	s.Frames.Count = r.TotalUpdates
	s.Frames.Total = r.TotalTime.String()
	s.Frames.Avg = r.UpdateTime.Avg.String()
	s.Frames.Min = r.UpdateTime.Min.String()
	s.Frames.Max = r.UpdateTime.Max.String()
	s.Frames.P99 = r.UpdateTime.P99.String()

	s.Entities.Final = r.FinalEntities
	s.Entities.Expired = r.Expired
	s.Entities.Respawned = r.Respawned

	for _, sys := range r.SystemStats {
		s.Systems = append(s.Systems, systemSummary{
			Name:       sys.Name,
			Priority:   sys.Priority,
			Executions: sys.ExecutionCount,
			Avg:        sys.AvgDuration.String(),
			Max:        sys.MaxDuration.String(),
		})
	}

	s.Memory.HeapAllocDelta = int64(r.MemStatsEnd.HeapAlloc) - int64(r.MemStatsStart.HeapAlloc)
	s.Memory.TotalAllocDelta = int64(r.MemStatsEnd.TotalAlloc) - int64(r.MemStatsStart.TotalAlloc)
	s.Memory.NumGC = r.MemStatsEnd.NumGC - r.MemStatsStart.NumGC
	if r.GCPauseMetrics {
		s.Memory.GCPause = time.Duration(r.MemStatsEnd.PauseTotalNs - r.MemStatsStart.PauseTotalNs).String()
	}
	return s
}

func (r *Report) GenerateYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.summary()); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Max Tree Depth:** {{.Depth}}
- **Filler Systems:** {{.Systems}}
- **Workers:** {{.Workers}}
- **Seed:** {{.Seed}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Step Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
  - **P99:** {{.UpdateTime.P99}}

## Entity Churn
- **Final Entities:** {{.FinalEntities}}
- **Expired:** {{.Expired}}
- **Respawned:** {{.Respawned}}

## Systems (execution order)
| System | Priority | Runs | Avg | Max |
|---|---|---|---|---|
{{- range .SystemStats}}
| {{.Name}} | {{.Priority}} | {{.ExecutionCount}} | {{.AvgDuration}} | {{.MaxDuration}} |
{{- end}}

## Memory Usage (MiB)
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} (start) -> {{mb .MemStatsEnd.HeapAlloc}} (end) -> delta: {{mb (bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc)}}
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} (start) -> {{mb .MemStatsEnd.TotalAlloc}} (end) -> delta: {{mb (bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc)}}
- Sys Memory:     {{mb .MemStatsStart.Sys}} (start) -> {{mb .MemStatsEnd.Sys}} (end) -> delta: {{mb (bsub .MemStatsEnd.Sys .MemStatsStart.Sys)}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{nsub .MemStatsEnd.PauseTotalNs .MemStatsStart.PauseTotalNs}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"nsub": func(a, b uint64) string {
			return time.Duration(a - b).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
