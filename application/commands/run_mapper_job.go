package commands

import (
	"errors"
	"strings"
)

// Mapper job modes
const (
	MapperModeMap   = "map"
	MapperModeCount = "count"
)

// RunMapperJobCommand represents a request to run the slim mapper over an
// association file that has already been staged on local disk. JobID lets
// the caller name the job record up front; left empty, an id is generated.
type RunMapperJobCommand struct {
	JobID           string `json:"job_id"`
	AssociationPath string `json:"association_path" validate:"required"`
	AssociationName string `json:"association_name"`
	Mode            string `json:"mode" validate:"oneof=map count"`
	Aspect          string `json:"aspect" validate:"omitempty,oneof=P F C p f c"`
	FeatureTable    bool   `json:"feature_table"`
	Indent          bool   `json:"indent"`
}

// Validate validates the command
func (cmd RunMapperJobCommand) Validate() error {
	if cmd.AssociationPath == "" {
		return errors.New("association path is required")
	}
	switch cmd.Mode {
	case MapperModeMap, MapperModeCount:
	default:
		return errors.New("mode must be map or count")
	}
	switch strings.ToUpper(strings.TrimSpace(cmd.Aspect)) {
	case "", "P", "F", "C":
	default:
		return errors.New("aspect must be one of P, F, C")
	}
	return nil
}
