package facade

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// FacadeMisuseError is raised when code reaches a facade's construction
// path. A correct rewrite never leaves a reference to a facade constructor,
// so this error signals a rewrite-rule or engine defect and is always
// reported loudly.
type FacadeMisuseError struct {
	Facade string // facade module path
	Member string // export that was invoked
	Cause  error
}

func (e *FacadeMisuseError) Error() string {
	msg := fmt.Sprintf("facade misuse: %s::%s invoked outside rewrite-target context", e.Facade, e.Member)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FacadeMisuseError) Unwrap() error {
	return e.Cause
}

// Guard instantiates facade modules and intercepts their construction
// paths. One Guard serves a single wazero runtime; facade instantiation is
// the loader's step between rewriting a mod and loading it.
type Guard struct {
	rt  wazero.Runtime
	reg *Registry
}

// NewGuard creates a guard over a frozen registry.
func NewGuard(rt wazero.Runtime, reg *Registry) *Guard {
	return &Guard{rt: rt, reg: reg}
}

// Instantiate compiles and instantiates the facade described by d under the
// facade's module path, so rewritten mod imports bind to it. The facade's
// own host imports must already be satisfied in the runtime.
func (g *Guard) Instantiate(ctx context.Context, d *Descriptor) (api.Module, error) {
	compiled, err := g.rt.CompileModule(ctx, d.Synthesize())
	if err != nil {
		return nil, err
	}
	mod, err := g.rt.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(d.FacadeModule))
	if err != nil {
		return nil, err
	}
	Logger().Debug("facade instantiated",
		zap.String("facade", d.FacadeModule),
		zap.String("bridges", d.OriginalType),
		zap.String("versions", d.Applies.String()))
	return mod, nil
}

// Construct invokes the facade's construction path. It always returns a
// *FacadeMisuseError: a facade exists purely as a rewrite target and has no
// legitimate instances. The error carries the facade identity and the trap
// from the constructor body.
func (g *Guard) Construct(ctx context.Context, mod api.Module) error {
	name := mod.Name()

	ctor := mod.ExportedFunction(ConstructorExport)
	var cause error
	if ctor != nil {
		_, cause = ctor.Call(ctx)
	}

	err := &FacadeMisuseError{Facade: name, Member: ConstructorExport, Cause: cause}
	Logger().Error("facade construction attempted",
		zap.String("facade", name),
		zap.Error(err))
	return err
}

// CheckExport guards arbitrary export access: touching the constructor is
// misuse, anything else is allowed. Loaders consult this before exposing a
// facade member to diagnostics tooling.
func (g *Guard) CheckExport(facadeModule, member string) error {
	if member != ConstructorExport {
		return nil
	}
	err := &FacadeMisuseError{Facade: facadeModule, Member: member}
	Logger().Error("facade construction path accessed",
		zap.String("facade", facadeModule),
		zap.Error(err))
	return err
}
