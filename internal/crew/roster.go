package crew

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// Spec is the data-only description of one role, as declared in a roster.
type Spec struct {
	// Description is the one-line summary shown in the team roster.
	Description string `yaml:"description"`
	// Instructions is the standing brief given to the engine.
	Instructions string `yaml:"instructions"`
	// Capabilities lists capability tokens (read_file, list_directory, ...).
	Capabilities []string `yaml:"capabilities"`
	// Budget is the maximum number of reasoning iterations.
	Budget int `yaml:"budget"`
	// CanDelegate permits delegation; only valid for the manager.
	CanDelegate bool `yaml:"can_delegate"`
}

// Roster maps every role to its spec.
type Roster map[models.Role]Spec

// rosterFile is the on-disk layout of a roster override.
type rosterFile struct {
	Roles map[string]specOverride `yaml:"roles"`
}

type specOverride struct {
	Description  string   `yaml:"description"`
	Instructions string   `yaml:"instructions"`
	Capabilities []string `yaml:"capabilities"`
	Budget       int      `yaml:"budget"`
	CanDelegate  *bool    `yaml:"can_delegate"`
}

var readOnly = []string{string(models.CapReadFile), string(models.CapListDirectory)}

// DefaultRoster returns the built-in crew: a manager plus six specialists.
func DefaultRoster() Roster {
	return Roster{
		models.RoleManager: {
			Description: "coordinates everything",
			Instructions: "You lead a development team. Understand the request, inspect the project, " +
				"delegate focused assignments to the right specialists and merge their findings into one final report.",
			Capabilities: readOnly,
			Budget:       15,
			CanDelegate:  true,
		},
		models.RoleAnalyzer: {
			Description:  "finds bugs & issues",
			Instructions: "You analyze source code for bugs, logic errors and risky patterns. Cite files and lines.",
			Capabilities: readOnly,
			Budget:       10,
		},
		models.RoleImplementer: {
			Description:  "builds features & fixes",
			Instructions: "You implement features and fixes with small, focused changes that match the existing code.",
			Capabilities: []string{"read_file", "list_directory", "write_file", "execute_code"},
			Budget:       10,
		},
		models.RoleSecuritySpecialist: {
			Description:  "wallet and key handling security",
			Instructions: "You review code for security issues: secrets, key handling, authentication and injection.",
			Capabilities: readOnly,
			Budget:       8,
		},
		models.RoleDatabaseArchitect: {
			Description:  "schemas, migrations, APIs",
			Instructions: "You design database schemas, migrations, access policies and data APIs.",
			Capabilities: []string{"read_file", "list_directory", "write_file"},
			Budget:       10,
		},
		models.RoleQATester: {
			Description:  "writes tests & ensures quality",
			Instructions: "You write and run tests that cover the behaviour under review, including edge cases.",
			Capabilities: []string{"read_file", "list_directory", "write_file", "execute_code"},
			Budget:       8,
		},
		models.RoleUIDesigner: {
			Description:  "builds beautiful components",
			Instructions: "You build accessible, responsive UI components that follow the project's conventions.",
			Capabilities: []string{"read_file", "list_directory", "write_file"},
			Budget:       10,
		},
	}
}

// LoadRoster reads a roster override file and layers it over the defaults.
// Fields left unset in the file keep their default values.
func LoadRoster(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}

	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}

	roster := DefaultRoster()
	for name, override := range file.Roles {
		role, err := models.ParseRole(name)
		if err != nil {
			return nil, models.WrapFailure(models.FailureConfiguration, err, "roster "+path)
		}
		spec := roster[role]
		if override.Description != "" {
			spec.Description = override.Description
		}
		if override.Instructions != "" {
			spec.Instructions = override.Instructions
		}
		if override.Capabilities != nil {
			spec.Capabilities = override.Capabilities
		}
		if override.Budget != 0 {
			spec.Budget = override.Budget
		}
		if override.CanDelegate != nil {
			spec.CanDelegate = *override.CanDelegate
		}
		roster[role] = spec
	}
	return roster, nil
}
