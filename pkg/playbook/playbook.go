// Package playbook runs an ordered list of configuration operations,
// described in a YAML file, through the module dispatcher over one device
// session.
package playbook

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ftdconf/ftdconf/pkg/module"
	"github.com/ftdconf/ftdconf/pkg/resource"
	"github.com/ftdconf/ftdconf/pkg/swagger"
	"github.com/ftdconf/ftdconf/pkg/util"
)

// Task is one operation in a playbook.
type Task struct {
	Name        string                 `yaml:"name"`
	Operation   string                 `yaml:"operation"`
	Data        map[string]interface{} `yaml:"data,omitempty"`
	PathParams  map[string]interface{} `yaml:"path_params,omitempty"`
	QueryParams map[string]interface{} `yaml:"query_params,omitempty"`
	Filters     map[string]interface{} `yaml:"filters,omitempty"`
	RegisterAs  string                 `yaml:"register_as,omitempty"`
}

// Playbook is an ordered list of tasks applied to one device.
type Playbook struct {
	Tasks []Task `yaml:"tasks"`
}

// TaskResult pairs a task with its dispatcher outcome.
type TaskResult struct {
	Task   string
	Result *module.RunResult
}

// Summary counts task outcomes the way operators read them.
type Summary struct {
	OK      int
	Changed int
	Failed  int
}

// Parse decodes a playbook document.
func Parse(raw []byte) (*Playbook, error) {
	var pb Playbook
	if err := yaml.Unmarshal(raw, &pb); err != nil {
		return nil, util.NewConfigurationError(fmt.Sprintf("cannot parse playbook: %v", err))
	}
	if len(pb.Tasks) == 0 {
		return nil, util.NewConfigurationError("playbook has no tasks")
	}
	for i, task := range pb.Tasks {
		if task.Operation == "" {
			return nil, util.NewConfigurationError(fmt.Sprintf("task %d (%q) has no operation", i+1, task.Name))
		}
	}
	return &pb, nil
}

// Load reads and decodes a playbook file.
func Load(path string) (*Playbook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, util.NewConfigurationError(fmt.Sprintf("cannot read playbook: %v", err))
	}
	return Parse(raw)
}

// Run applies the playbook's tasks in order, stopping at the first failure.
// Results for every executed task are returned either way.
func (pb *Playbook) Run(ctx context.Context, client resource.Client, index *swagger.SpecIndex, checkMode bool) ([]TaskResult, Summary) {
	var (
		results []TaskResult
		summary Summary
	)
	for i, task := range pb.Tasks {
		name := task.Name
		if name == "" {
			name = fmt.Sprintf("task %d (%s)", i+1, task.Operation)
		}
		util.WithOperation(task.Operation).Infof("Running %s", name)

		res := module.Run(ctx, client, index, &module.RunParams{
			Operation:   task.Operation,
			Data:        task.Data,
			PathParams:  task.PathParams,
			QueryParams: task.QueryParams,
			Filters:     task.Filters,
			RegisterAs:  task.RegisterAs,
			CheckMode:   checkMode,
		})
		results = append(results, TaskResult{Task: name, Result: res})

		switch {
		case res.Failed:
			summary.Failed++
			return results, summary
		case res.Changed:
			summary.Changed++
		default:
			summary.OK++
		}
	}
	return results, summary
}
