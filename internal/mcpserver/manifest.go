package mcpserver

import (
	"encoding/json"
	"strings"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	manifestName   = "io.github.panbanda/decay"
	imageName      = "ghcr.io/panbanda/decay"

	// workdir is where the container expects the repository to be mounted.
	workdir = "/repo"
)

// Manifest is the registry description of the server (server.json).
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the source of the server.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package is one way of running the server.
type Package struct {
	RegistryType         string     `json:"registryType"`
	Identifier           string     `json:"identifier"`
	RuntimeArguments     []Argument `json:"runtimeArguments,omitempty"`
	PackageArguments     []Argument `json:"packageArguments,omitempty"`
	EnvironmentVariables []EnvVar   `json:"environmentVariables,omitempty"`
	Transport            Transport  `json:"transport"`
}

// Argument is a positional or named command-line argument.
type Argument struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// EnvVar is an environment variable the server reads.
type EnvVar struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
}

// Transport is how clients talk to the server.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest creates the server.json for a release. Development builds
// are published as 0.0.0.
func GenerateManifest(version string) ([]byte, error) {
	version = strings.TrimPrefix(version, "v")
	if version == "" || version == "dev" {
		version = "0.0.0"
	}

	m := Manifest{
		Schema:      manifestSchema,
		Name:        manifestName,
		Description: "Architectural decay forensics from git history, code structure, and ownership",
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/panbanda/decay",
			Source: "github",
		},
		Packages: []Package{{
			RegistryType: "oci",
			Identifier:   imageName + ":" + version,
			RuntimeArguments: []Argument{
				{
					Type:        "named",
					Name:        "--volume",
					Value:       "{repository}:" + workdir + ":ro",
					Description: "Repository to analyze, mounted read-only",
				},
				{Type: "named", Name: "--workdir", Value: workdir},
			},
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []EnvVar{{
				Name:        "DECAY_CONFIG",
				Description: "Path of a decay.toml, decay.yaml or decay.json inside the container",
			}},
			Transport: Transport{Type: "stdio"},
		}},
	}
	return json.MarshalIndent(m, "", "  ")
}
