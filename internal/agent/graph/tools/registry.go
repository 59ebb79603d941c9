package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Chative-support-router/server/internal/agent/model"
	errx "github.com/Chative-support-router/server/internal/core/error"
	logx "github.com/Chative-support-router/server/pkg/logger"
	"github.com/cloudwego/eino/schema"
)

// CustomerIDParam is the argument the Binder owns for customer-scoped tools.
const CustomerIDParam = "customer_id"

const DefaultToolTimeout = 10 * time.Second

type Param struct {
	Name     string
	Type     schema.DataType
	Desc     string
	Required bool
	Enum     []string
}

// Executor runs a tool with validated, bound arguments. The returned value
// becomes the ToolResult payload.
type Executor func(ctx context.Context, args map[string]any) (any, error)

type Spec struct {
	Name           string
	Desc           string
	Params         []Param
	CustomerScoped bool
	Exec           Executor
}

// Registry is the closed set of tools the agent may call. Execute never
// returns a Go error; every failure becomes a failed ToolResult.
type Registry struct {
	specs   map[string]Spec
	order   []string
	binder  *Binder
	timeout time.Duration
	hooks   []func(model.ToolResult)
}

type Option func(*Registry)

func WithTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithResultHook is called after every execution, successful or not.
func WithResultHook(fn func(model.ToolResult)) Option {
	return func(r *Registry) {
		if fn != nil {
			r.hooks = append(r.hooks, fn)
		}
	}
}

func NewRegistry(customerID int64, specs []Spec, opts ...Option) (*Registry, error) {
	r := &Registry{
		specs:   make(map[string]Spec, len(specs)),
		timeout: DefaultToolTimeout,
	}
	for _, s := range specs {
		if s.Name == "" || s.Exec == nil {
			return nil, fmt.Errorf("tool spec %q is incomplete", s.Name)
		}
		if _, dup := r.specs[s.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", s.Name)
		}
		r.specs[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	for _, o := range opts {
		o(r)
	}
	r.binder = NewBinder(customerID, r)
	return r, nil
}

func (r *Registry) Binder() *Binder {
	return r.binder
}

func (r *Registry) IsCustomerScoped(name string) bool {
	s, ok := r.specs[name]
	return ok && s.CustomerScoped
}

func (r *Registry) Lookup(name string) (Spec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Specs returns the registered tools in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.specs[n])
	}
	return out
}

func (r *Registry) Execute(ctx context.Context, req model.ToolCallRequest) (res model.ToolResult) {
	start := time.Now()
	defer func() { r.observe(req, start, res) }()

	spec, ok := r.specs[req.ToolName]
	if !ok {
		return failed(req.ToolName, errx.KindToolValidation, fmt.Sprintf("unknown tool %q", req.ToolName))
	}

	args := sanitize(spec.Params, r.binder.Bind(spec.Name, req.Arguments))
	if err := validateArgs(spec.Params, args); err != nil {
		return failed(spec.Name, errx.KindToolValidation, err.Error())
	}

	payload, err := r.run(ctx, spec, args)
	if err != nil {
		kind := errx.KindToolExecution
		if errx.IsKind(err, errx.KindToolValidation) {
			kind = errx.KindToolValidation
		}
		return failed(spec.Name, kind, err.Error())
	}
	return model.ToolResult{ToolName: spec.Name, Success: true, Payload: payload}
}

// Reject records a call that never reached a tool, such as one whose
// arguments could not be decoded. Hooks see it like any other failure.
func (r *Registry) Reject(req model.ToolCallRequest, kind errx.Kind, msg string) model.ToolResult {
	res := failed(req.ToolName, kind, msg)
	r.observe(req, time.Now(), res)
	return res
}

func (r *Registry) observe(req model.ToolCallRequest, start time.Time, res model.ToolResult) {
	ev := logx.Debug()
	if !res.Success {
		ev = logx.Warn().Str("kind", res.Kind).Str("error", res.Error)
	}
	ev.Str("tool", req.ToolName).Str("call_id", req.ID).Dur("elapsed", time.Since(start)).Msg("tool executed")
	for _, h := range r.hooks {
		h(res)
	}
}

func (r *Registry) run(ctx context.Context, spec Spec, args map[string]any) (payload any, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			payload, err = nil, fmt.Errorf("tool panicked: %v", p)
		}
	}()

	payload, err = spec.Exec(ctx, args)
	if err == nil && ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("tool timed out after %s", r.timeout)
	}
	return payload, err
}

func failed(name string, kind errx.Kind, msg string) model.ToolResult {
	return model.ToolResult{ToolName: name, Success: false, Error: msg, Kind: string(kind)}
}

// sanitize converts numeric strings ("1001") for integer and number params.
func sanitize(params []Param, args map[string]any) map[string]any {
	for _, p := range params {
		s, ok := args[p.Name].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "#"))
		switch p.Type {
		case schema.Integer:
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				args[p.Name] = n
			}
		case schema.Number:
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				args[p.Name] = f
			}
		}
	}
	return args
}

func validateArgs(params []Param, args map[string]any) error {
	var problems []string
	for _, p := range params {
		v, present := args[p.Name]
		if !present || v == nil {
			if p.Required {
				problems = append(problems, fmt.Sprintf("missing required argument %q", p.Name))
			}
			continue
		}
		if err := checkType(p, v); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func checkType(p Param, v any) error {
	switch p.Type {
	case schema.String:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("argument %q must be a string", p.Name)
		}
		if p.Required && strings.TrimSpace(s) == "" {
			return fmt.Errorf("argument %q must not be empty", p.Name)
		}
		if len(p.Enum) > 0 && !containsFold(p.Enum, s) {
			return fmt.Errorf("argument %q must be one of %s", p.Name, strings.Join(p.Enum, ", "))
		}
	case schema.Integer:
		if !isInteger(v) {
			return fmt.Errorf("argument %q must be an integer", p.Name)
		}
	case schema.Number:
		if !isNumber(v) {
			return fmt.Errorf("argument %q must be a number", p.Name)
		}
	case schema.Boolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", p.Name)
		}
	}
	return nil
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == math.Trunc(n) && !math.IsInf(n, 0)
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, e := range list {
		if strings.EqualFold(e, s) {
			return true
		}
	}
	return false
}
