// Package cloudformation synthesizes a topology into a CloudFormation template
// plus its staged assets, the cloud assembly a deploy tool picks up.
package cloudformation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/linecard/hellocdk/pkg/asset"
	"github.com/linecard/hellocdk/pkg/engine"
	"github.com/linecard/hellocdk/pkg/topology"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	Name            = "cloudformation"
	ManifestFile    = "manifest.json"
	ManifestVersion = "1"
)

// Manifest describes one synthesized stack in the output directory.
type Manifest struct {
	Version     string       `json:"version"`
	Stack       string       `json:"stack"`
	Template    string       `json:"template"`
	Order       []string     `json:"order"`
	Assets      []Asset      `json:"assets"`
	Deployments []Deployment `json:"deployments,omitempty"`
}

type Synthesizer struct {
	Out    string
	Format Format
	Tags   map[string]string
}

func New(out string, format Format, tags map[string]string) *Synthesizer {
	return &Synthesizer{
		Out:    out,
		Format: format,
		Tags:   tags,
	}
}

var _ engine.Engine = (*Synthesizer)(nil)

// Run writes the template, one zip per asset and manifest.json into Out.
func (s *Synthesizer) Run(ctx context.Context, g *topology.Graph) error {
	_, span := otel.Tracer("").Start(ctx, "cloudformation.Synth")
	defer span.End()
	span.SetAttributes(attribute.String("stack", g.Name()))

	manifest, err := s.synth(g)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return engine.Wrap(Name, "", err)
	}

	log.Info().
		Str("stack", manifest.Stack).
		Str("template", filepath.Join(s.Out, manifest.Template)).
		Int("assets", len(manifest.Assets)).
		Msg("synthesized stack")

	return nil
}

func (s *Synthesizer) synth(g *topology.Graph) (*Manifest, error) {
	template, assets, deployments, err := Build(g, s.Tags)
	if err != nil {
		return nil, err
	}

	body, err := template.Encode(s.Format)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.Out, 0o755); err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Version:     ManifestVersion,
		Stack:       g.Name(),
		Template:    fmt.Sprintf("%s.template.%s", g.Name(), s.Format.Extension()),
		Order:       g.Order(),
		Assets:      assets,
		Deployments: deployments,
	}

	if err := os.WriteFile(filepath.Join(s.Out, manifest.Template), body, 0o644); err != nil {
		return nil, err
	}

	for _, a := range assets {
		dest := filepath.Join(s.Out, a.File)
		if _, err := os.Stat(dest); err == nil {
			log.Debug().Str("asset", a.ID).Str("file", a.File).Msg("asset already staged")
			continue
		}

		if err := asset.WriteZip(g.Asset(a.Source), dest); err != nil {
			return nil, fmt.Errorf("staging asset %s: %w", a.ID, err)
		}
		log.Debug().Str("asset", a.ID).Str("file", a.File).Msg("staged asset")
	}

	manifestBody, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(s.Out, ManifestFile), manifestBody, 0o644); err != nil {
		return nil, err
	}

	return manifest, nil
}

// ReadManifest loads the manifest a previous Run left in out.
func ReadManifest(out string) (*Manifest, error) {
	body, err := os.ReadFile(filepath.Join(out, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(body, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestFile, err)
	}

	return &manifest, nil
}
