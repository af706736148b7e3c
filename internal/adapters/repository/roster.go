package repository

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/strikeboard/internal/domain/model"
)

// LoadRoster reads a YAML roster file. Keys follow the JSON names of the
// model types (teams, lanes, matches, teamMembers, positions).
func LoadRoster(path string) (model.Roster, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return model.Roster{}, fmt.Errorf("load roster %s: %w", path, err)
	}
	var r model.Roster
	if err := k.UnmarshalWithConf("", &r, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return model.Roster{}, fmt.Errorf("decode roster %s: %w", path, err)
	}
	return r, nil
}
