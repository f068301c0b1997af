package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Regenerate with `go run .github/workflows/generate.go > .github/workflows/ci.yaml`.

type PushTrigger struct {
	Branches []string `yaml:"branches,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

type Trigger struct {
	Push        PushTrigger `yaml:"push,omitempty"`
	PullRequest struct{}    `yaml:"pull_request"`
}

type Args map[string]interface{}

type Step struct {
	Name string            `yaml:"name,omitempty"`
	If   string            `yaml:"if,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	ID   string            `yaml:"id,omitempty"`
	Run  string            `yaml:"run,omitempty"`
	With Args              `yaml:"with,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
}

type Service struct {
	Image   string            `yaml:"image"`
	Env     map[string]string `yaml:"env,omitempty"`
	Ports   []string          `yaml:"ports,omitempty"`
	Options string            `yaml:"options,omitempty"`
}

type Strategy struct {
	Matrix map[string][]string `yaml:"matrix"`
}

type Job struct {
	RunsOn   string             `yaml:"runs-on"`
	Needs    []string           `yaml:"needs,omitempty"`
	If       string             `yaml:"if,omitempty"`
	Strategy *Strategy          `yaml:"strategy,omitempty"`
	Services map[string]Service `yaml:"services,omitempty"`
	Steps    []Step             `yaml:"steps"`
}

type Workflow struct {
	Name string  `yaml:"name"`
	On   Trigger `yaml:"on,omitempty"`
	Jobs map[string]Job
}

const goVersion = "1.21"

var (
	checkout = Step{Name: "Checkout", Uses: "actions/checkout@v4"}
	setupGo  = Step{
		Name: "Set up Go",
		Uses: "actions/setup-go@v5",
		With: Args{"go-version": goVersion},
	}
)

// JobTest runs the whole test suite against a throwaway postgres so the
// `PGImageStore` tests aren't skipped.
func JobTest() Job {
	return Job{
		RunsOn: "ubuntu-latest",
		Services: map[string]Service{
			"postgres": {
				Image: "postgres:16",
				Env:   map[string]string{"POSTGRES_PASSWORD": "postgres"},
				Ports: []string{"5432:5432"},
				Options: "--health-cmd pg_isready --health-interval 10s " +
					"--health-timeout 5s --health-retries 5",
			},
		},
		Steps: []Step{checkout, setupGo, {
			Name: "Vet",
			Run:  "go vet ./...",
		}, {
			Name: "Test",
			Run:  "go test -race ./...",
			Env: map[string]string{
				"PG_HOST": "localhost",
				"PG_PASS": "postgres",
			},
		}},
	}
}

// JobRelease builds the `sfs` binary for each platform on tag pushes.
func JobRelease(platforms ...string) Job {
	return Job{
		RunsOn:   "ubuntu-latest",
		Needs:    []string{"test"},
		If:       "startsWith(github.ref, 'refs/tags/')",
		Strategy: &Strategy{Matrix: map[string][]string{"arch": platforms}},
		Steps: []Step{checkout, setupGo, {
			Name: "Build",
			Run: "CGO_ENABLED=0 GOOS=linux GOARCH=${{ matrix.arch }} " +
				"go build -o sfs-linux-${{ matrix.arch }} ./cmd/sfs",
		}, {
			Name: "Upload",
			Uses: "actions/upload-artifact@v4",
			With: Args{
				"name": "sfs-linux-${{ matrix.arch }}",
				"path": "sfs-linux-${{ matrix.arch }}",
			},
		}},
	}
}

func WorkflowCI() Workflow {
	return Workflow{
		Name: "ci",
		On: Trigger{
			Push: PushTrigger{
				Branches: []string{"*"},
				Tags:     []string{"*"},
			},
		},
		Jobs: map[string]Job{
			"test":    JobTest(),
			"release": JobRelease("amd64", "arm64"),
		},
	}
}

func MarshalToWriter(w io.Writer, v interface{}) error {
	yamlEncoder := yaml.NewEncoder(w)
	yamlEncoder.SetIndent(2)
	if err := yamlEncoder.Encode(v); err != nil {
		return fmt.Errorf("marshaling to YAML: %w", err)
	}
	return nil
}

func main() {
	if err := MarshalToWriter(os.Stdout, WorkflowCI()); err != nil {
		log.Fatalf("marshaling ci workflow: %v", err)
	}
}
