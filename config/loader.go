package config

import (
	_ "embed"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/shipgate/shipgate/environment"
	"github.com/shipgate/shipgate/errors"
	"github.com/shipgate/shipgate/fs"
)

//go:embed schema.cue
var schemaSource []byte

// rawConfig mirrors the CUE structure for decoding.
type rawConfig struct {
	Project struct {
		ID    string `json:"id"`
		Trunk string `json:"trunk"`
	} `json:"project"`
	Build struct {
		Staging    string      `json:"staging"`
		AppSubPath string      `json:"appSubPath"`
		Site       rawSubBuild `json:"site"`
		App        rawSubBuild `json:"app"`
	} `json:"build"`
	Gate struct {
		TestFileSuffix string `json:"testFileSuffix"`
		Coverage       struct {
			File      string             `json:"file"`
			Threshold float64            `json:"threshold"`
			Exclude   []string           `json:"exclude"`
			Layers    map[string]float64 `json:"layers"`
		} `json:"coverage"`
	} `json:"gate"`
	Environments map[string]rawEnvironment `json:"environments"`
}

type rawSubBuild struct {
	Dir     string   `json:"dir"`
	Command []string `json:"command"`
	Output  string   `json:"output"`
}

type rawEnvironment struct {
	Branch              string `json:"branch"`
	Target              string `json:"target"`
	URL                 string `json:"url"`
	AutoDeploy          bool   `json:"autoDeploy"`
	RequireConfirmation bool   `json:"requireConfirmation"`
}

// Load reads the pipeline configuration. The embedded schema supplies
// defaults; if the override file exists on fsys it is unified with the
// schema so partial overrides work field by field.
func Load(fsys *fs.FS, path string) (*Config, error) {
	cuectx := cuecontext.New()

	value := cuectx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := value.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "embedded configuration schema is invalid")
	}

	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			"failed to probe configuration file", map[string]interface{}{"path": path})
	}
	if exists {
		data, err := fsys.ReadFile(path)
		if err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
				"failed to read configuration file", map[string]interface{}{"path": path})
		}
		override := cuectx.CompileBytes(data, cue.Filename(path))
		if err := override.Err(); err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
				"configuration file does not parse", map[string]interface{}{"path": path})
		}
		value = value.Unify(override)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "configuration is incomplete or conflicting")
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to decode configuration")
	}
	return fromRaw(&raw), nil
}

// fromRaw converts the decoded CUE structure into the typed Config.
// Environments come out in promotion order for deterministic listings.
func fromRaw(raw *rawConfig) *Config {
	cfg := &Config{
		Project: Project{
			ID:    raw.Project.ID,
			Trunk: raw.Project.Trunk,
		},
		Build: Build{
			StagingDir: raw.Build.Staging,
			AppSubPath: raw.Build.AppSubPath,
			Site:       SubBuild(raw.Build.Site),
			App:        SubBuild(raw.Build.App),
		},
		Gate: Gate{
			TestFileSuffix: raw.Gate.TestFileSuffix,
			Coverage: Coverage{
				File:      raw.Gate.Coverage.File,
				Threshold: raw.Gate.Coverage.Threshold,
				Exclude:   raw.Gate.Coverage.Exclude,
				Layers:    raw.Gate.Coverage.Layers,
			},
		},
	}

	names := make([]string, 0, len(raw.Environments))
	for name := range raw.Environments {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return promotionRank(names[i]) < promotionRank(names[j]) })

	for _, name := range names {
		re := raw.Environments[name]
		cfg.Environments = append(cfg.Environments, environment.Environment{
			Name:                environment.Name(name),
			Branch:              re.Branch,
			Target:              re.Target,
			URL:                 re.URL,
			AutoDeploy:          re.AutoDeploy,
			RequireConfirmation: re.RequireConfirmation,
		})
	}
	return cfg
}

func promotionRank(name string) int {
	for i, n := range environment.Names() {
		if string(n) == name {
			return i
		}
	}
	return len(environment.Names())
}
