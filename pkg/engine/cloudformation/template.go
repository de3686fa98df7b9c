package cloudformation

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type Template struct {
	AWSTemplateFormatVersion string               `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string               `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]Resource  `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output    `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

type Resource struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

type Parameter struct {
	Type        string `json:"Type" yaml:"Type"`
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
}

type Output struct {
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any    `json:"Value" yaml:"Value"`
}

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

func Ref(name string) map[string]any {
	return map[string]any{"Ref": name}
}

func GetAtt(name, attribute string) map[string]any {
	return map[string]any{"Fn::GetAtt": []string{name, attribute}}
}

func Join(delimiter string, parts ...any) map[string]any {
	return map[string]any{"Fn::Join": []any{delimiter, parts}}
}

// Pseudo parameters.
var (
	Partition = Ref("AWS::Partition")
	Region    = Ref("AWS::Region")
	AccountID = Ref("AWS::AccountId")
	URLSuffix = Ref("AWS::URLSuffix")
)

func newTemplate(description string) *Template {
	return &Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              description,
		Parameters:               make(map[string]Parameter),
		Resources:                make(map[string]Resource),
		Outputs:                  make(map[string]Output),
	}
}

// add refuses to overwrite a logical ID already present in the template.
func (t *Template) add(id string, r Resource) error {
	if _, exists := t.Resources[id]; exists {
		return fmt.Errorf("template already has a resource named %s", id)
	}
	t.Resources[id] = r
	return nil
}

// Encode renders the template. Map keys are emitted sorted in both formats.
func (t *Template) Encode(format Format) ([]byte, error) {
	switch format {
	case JSON, "":
		return json.MarshalIndent(t, "", "  ")
	case YAML:
		return yaml.Marshal(t)
	default:
		return nil, fmt.Errorf("unsupported template format %q", format)
	}
}

// Extension is the file extension for format.
func (f Format) Extension() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}
