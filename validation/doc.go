// Package validation checks node configs and config structs.
//
// Node type validators chain checks and return the collected messages:
//
//	return validation.New().
//	    Present("variableName", cfg["variableName"]).
//	    OneOf("mode", util.ToString(cfg["mode"]), []string{"get", "set"}).
//	    Messages()
//
// Config sections use `validate` struct tags and report fields by their
// config key:
//
//	type Config struct {
//	    MaxLoopIterations int `mapstructure:"max_loop_iterations" validate:"gte=1,lte=10000"`
//	}
//	err := validation.ValidateStruct(cfg)
package validation
