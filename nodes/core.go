package nodes

import (
	"context"
	"strings"

	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/registry"
	"github.com/kbukum/nodeflow/typesys"
	"github.com/kbukum/nodeflow/util"
	"github.com/kbukum/nodeflow/validation"
)

// TypeDebugLog logs a value and passes it through.
const TypeDebugLog = "debug/log"

// ExecNext is the single exec output of sequential exec-driven nodes.
const ExecNext = "exec"

func coreDefinitions() []registry.Definition {
	return []registry.Definition{
		{
			Type:          registry.TypeInput,
			Category:      CategoryCore,
			Description:   "Value supplied by the caller when the flow runs.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:       registry.Handles{Outputs: []string{"value"}},
			ExposedFields: []string{"value"},
			Config:        map[string]registry.ConfigField{"value": {Description: "Value used when the caller supplies none"}},
			Operation:     configValue,
		},
		{
			Type:        registry.TypeConstant,
			Category:    CategoryCore,
			Description: "Fixed value from the node config.",
			Execution:   registry.ExecutionPolicy{Mode: registry.ModeAuto},
			Handles:     registry.Handles{Outputs: []string{"value"}},
			Config:      map[string]registry.ConfigField{"value": {Required: true}},
			Operation:   configValue,
		},
		{
			Type:        registry.TypeVariable,
			Category:    CategoryCore,
			Description: "Writes (mode=set) or reads (mode=get) a global variable.",
			Handles:     registry.Handles{Inputs: []string{"value"}, Outputs: []string{"value"}},
			Config: map[string]registry.ConfigField{
				"variableName": {Required: true},
				"mode":         {Default: registry.VariableGet},
				"value":        {Description: "Value written when no input is connected"},
			},
			Operation: variable,
			Validator: func(cfg map[string]any) []string {
				return validation.New().
					OneOf("mode", strings.ToLower(util.ToString(cfg["mode"])), []string{registry.VariableSet, registry.VariableGet}).
					Messages()
			},
		},
		{
			Type:          registry.TypeIf,
			Category:      CategoryLogic,
			Description:   "Chooses the true or false exec branch.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeManual},
			Handles:       registry.Handles{Inputs: []string{"condition", "value"}, Outputs: []string{"branch", "condition", "value"}},
			ExecInputs:    true,
			ExecOutputs:   []string{registry.BranchTrue, registry.BranchFalse},
			ExposedFields: []string{"condition"},
			InputTypes:    map[string]typesys.Tag{"condition": typesys.Boolean},
			OutputTypes:   map[string]typesys.Tag{"branch": typesys.String, "condition": typesys.Boolean},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				cond := util.ToBool(req.Config["condition"])
				branch := registry.BranchFalse
				if cond {
					branch = registry.BranchTrue
				}
				return map[string]any{"branch": branch, "condition": cond, "value": req.Inputs["value"]}, nil
			},
		},
		{
			Type:        registry.TypeRepeat,
			Category:    CategoryLogic,
			Description: "Runs the body branch maxIterations times, then the done branch.",
			Execution:   registry.ExecutionPolicy{Mode: registry.ModeManual},
			Handles:     registry.Handles{Outputs: []string{"index"}},
			ExecInputs:  true,
			ExecOutputs: []string{registry.LoopBody, registry.LoopDone},
			Config:      map[string]registry.ConfigField{"maxIterations": {Description: "Iterations to run, engine max_loop_iterations when unset"}},
			OutputTypes: map[string]typesys.Tag{"index": typesys.Integer},
			Operation: func(context.Context, registry.Request) (any, error) {
				return 0, nil
			},
			Validator: loopValidator,
		},
		{
			Type:          registry.TypeWhile,
			Category:      CategoryLogic,
			Description:   "Runs the body branch while the condition holds, then the done branch.",
			Execution:     registry.ExecutionPolicy{Mode: registry.ModeManual},
			Handles:       registry.Handles{Inputs: []string{"condition"}, Outputs: []string{"condition", "index"}},
			ExecInputs:    true,
			ExecOutputs:   []string{registry.LoopBody, registry.LoopDone},
			ExposedFields: []string{"condition"},
			Config: map[string]registry.ConfigField{
				"maxIterations": {Description: "Upper bound on iterations, engine max_loop_iterations when unset"},
				"variableName":  {Description: "Global variable read as the condition instead of the input"},
			},
			Operation: func(_ context.Context, req registry.Request) (any, error) {
				cond := req.Config["condition"]
				if name := strings.TrimSpace(util.ToString(req.Config["variableName"])); name != "" && req.Exec != nil {
					cond, _ = req.Exec.Variables.Get(name)
				}
				return map[string]any{"condition": util.ToBool(cond)}, nil
			},
			Validator: loopValidator,
		},
		{
			Type:        TypeDebugLog,
			Category:    CategoryCore,
			Description: "Logs its input and passes it through.",
			Execution:   registry.ExecutionPolicy{Mode: registry.ModeManual},
			Handles:     registry.Handles{Inputs: []string{"value"}, Outputs: []string{"value"}},
			ExecInputs:  true,
			ExecOutputs: []string{ExecNext},
			Config: map[string]registry.ConfigField{
				"message": {Default: "debug"},
				"level":   {Default: "info"},
			},
			Operation: debugLog,
			Validator: func(cfg map[string]any) []string {
				return validation.New().
					OneOf("level", util.ToString(cfg["level"]), []string{"debug", "info", "warn", "error"}).
					Messages()
			},
		},
	}
}

func configValue(_ context.Context, req registry.Request) (any, error) {
	return req.Config["value"], nil
}

func variable(_ context.Context, req registry.Request) (any, error) {
	name := strings.TrimSpace(util.ToString(req.Config["variableName"]))
	if name == "" || req.Exec == nil || req.Exec.Variables == nil {
		return nil, nil
	}
	if strings.EqualFold(util.ToString(req.Config["mode"]), registry.VariableSet) {
		v := input(req, "value")
		req.Exec.Variables.Set(name, v)
		return v, nil
	}
	v, _ := req.Exec.Variables.Get(name)
	return v, nil
}

func loopValidator(cfg map[string]any) []string {
	if _, err := registry.LoopIterations(cfg, registry.DefaultLoopIterations); err != nil {
		return []string{err.Error()}
	}
	return nil
}

func debugLog(_ context.Context, req registry.Request) (any, error) {
	v := req.Inputs["value"]
	log := logger.Nop()
	if req.Exec != nil && req.Exec.Logger != nil {
		log = req.Exec.Logger
	}
	fields := map[string]interface{}{"value": util.ToString(v)}
	msg := util.ToString(req.Config["message"])
	switch util.ToString(req.Config["level"]) {
	case "debug":
		log.Debug(msg, fields)
	case "warn":
		log.Warn(msg, fields)
	case "error":
		log.Error(msg, fields)
	default:
		log.Info(msg, fields)
	}
	return v, nil
}
