package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/tetratelabs/wazero/api"

	"github.com/modshim/modshim"
	"github.com/modshim/modshim/facade"
	"github.com/modshim/modshim/hostapi"
	"github.com/modshim/modshim/metadata"
	"github.com/modshim/modshim/rewrite"
)

// catalog is the on-disk TOML form of one bridge: the current host surface,
// the rewrite rules, and the facades the rules point into.
//
//	host_version = "2.0.0"
//
//	[[host.method]]
//	type = "host:sim/foo@2.0.0"
//	name = "move_to_xy"
//	params = ["i32", "i32"]
//
//	[[rule]]
//	id = "foo-move"
//	type = "host:sim/foo@1.0.0"
//	member = "move_to"
//	kind = "method"
//	action = "redirect-to-facade"
//	new_type = "compat:sim/foo"
//	new_member = "move_to"
//	from = "2.0.0"
//
//	[[facade]]
//	original = "host:sim/foo@1.0.0"
//	module = "compat:sim/foo"
//	from = "2.0.0"
//
//	[[facade.method]]
//	name = "move_to"
//	params = ["i32", "i32"]
//	host_module = "host:sim/foo@2.0.0"
//	host_name = "move_to_xy"
type catalog struct {
	HostVersion string       `toml:"host_version"`
	Host        hostDecl     `toml:"host"`
	Rules       []ruleDecl   `toml:"rule"`
	Facades     []facadeDecl `toml:"facade"`
}

type hostDecl struct {
	Methods []methodDecl `toml:"method"`
	Fields  []fieldDecl  `toml:"field"`
}

type methodDecl struct {
	Type    string   `toml:"type"`
	Name    string   `toml:"name"`
	Params  []string `toml:"params"`
	Results []string `toml:"results"`
}

type fieldDecl struct {
	Type    string `toml:"type"`
	Name    string `toml:"name"`
	ValType string `toml:"valtype"`
	Mutable bool   `toml:"mutable"`
}

type sigDecl struct {
	Params  []string `toml:"params"`
	Results []string `toml:"results"`
}

type ruleDecl struct {
	ID        string   `toml:"id"`
	Type      string   `toml:"type"`
	Member    string   `toml:"member"`
	Kind      string   `toml:"kind"`
	Sig       *sigDecl `toml:"signature"`
	Action    string   `toml:"action"`
	NewType   string   `toml:"new_type"`
	NewMember string   `toml:"new_member"`
	From      string   `toml:"from"`
	To        string   `toml:"to"`
}

type facadeDecl struct {
	Original    string             `toml:"original"`
	Module      string             `toml:"module"`
	From        string             `toml:"from"`
	To          string             `toml:"to"`
	Methods     []facadeMethodDecl `toml:"method"`
	Fields      []facadeFieldDecl  `toml:"field"`
	Conversions []conversionDecl   `toml:"conversion"`
}

type facadeMethodDecl struct {
	Name       string   `toml:"name"`
	Params     []string `toml:"params"`
	Results    []string `toml:"results"`
	HostModule string   `toml:"host_module"`
	HostName   string   `toml:"host_name"`
}

type facadeFieldDecl struct {
	Name           string `toml:"name"`
	ValType        string `toml:"valtype"`
	Mutable        bool   `toml:"mutable"`
	HostModule     string `toml:"host_module"`
	HostName       string `toml:"host_name"`
	AccessorModule string `toml:"accessor_module"`
	AccessorName   string `toml:"accessor_name"`
	Default        int64  `toml:"default"`
}

type conversionDecl struct {
	Name    string `toml:"name"`
	ValType string `toml:"valtype"`
}

// loadCatalog reads a catalog file and wires it into a Patch config.
// hostVersion, when non-empty, overrides the catalog's host_version.
func loadCatalog(path, hostVersion string) (modshim.Config, error) {
	var cat catalog
	if _, err := toml.DecodeFile(path, &cat); err != nil {
		return modshim.Config{}, fmt.Errorf("parse catalog: %w", err)
	}
	if hostVersion == "" {
		hostVersion = cat.HostVersion
	}
	if hostVersion == "" {
		return modshim.Config{}, fmt.Errorf("catalog %s declares no host_version and no -host given", path)
	}

	surface, err := buildSurface(cat.Host, hostVersion)
	if err != nil {
		return modshim.Config{}, err
	}
	rules, err := buildRules(cat.Rules)
	if err != nil {
		return modshim.Config{}, err
	}
	facades, err := buildFacades(cat.Facades)
	if err != nil {
		return modshim.Config{}, err
	}
	return modshim.Config{Host: surface, Rules: rules, Facades: facades}, nil
}

func buildSurface(decl hostDecl, version string) (*hostapi.Surface, error) {
	s, err := hostapi.New(version)
	if err != nil {
		return nil, err
	}
	for _, m := range decl.Methods {
		sig, err := parseSig(m.Params, m.Results)
		if err != nil {
			return nil, fmt.Errorf("host method %s::%s: %w", m.Type, m.Name, err)
		}
		s.AddMethod(m.Type, m.Name, sig)
	}
	for _, f := range decl.Fields {
		vt, err := parseValTypeName(f.ValType)
		if err != nil {
			return nil, fmt.Errorf("host field %s::%s: %w", f.Type, f.Name, err)
		}
		s.AddField(f.Type, f.Name, vt, f.Mutable)
	}
	return s.Freeze(), nil
}

func buildRules(decls []ruleDecl) (*rewrite.RuleSet, error) {
	rs := rewrite.NewRuleSet()
	for _, d := range decls {
		kind, err := parseRefKind(d.Kind)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", d.ID, err)
		}
		action, err := parseAction(d.Action)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", d.ID, err)
		}
		applies, err := hostapi.NewRange(d.From, d.To)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", d.ID, err)
		}

		r := rewrite.Rule{
			ID:        d.ID,
			Type:      d.Type,
			Member:    d.Member,
			Kind:      kind,
			Action:    action,
			NewType:   d.NewType,
			NewMember: d.NewMember,
			Applies:   applies,
		}
		if d.Sig != nil {
			sig, err := parseSig(d.Sig.Params, d.Sig.Results)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", d.ID, err)
			}
			r.Sig = &sig
		}
		if err := rs.Add(r); err != nil {
			return nil, err
		}
	}
	if err := rs.Build(); err != nil {
		return nil, err
	}
	return rs, nil
}

func buildFacades(decls []facadeDecl) (*facade.Registry, error) {
	reg := facade.NewRegistry()
	for _, d := range decls {
		applies, err := hostapi.NewRange(d.From, d.To)
		if err != nil {
			return nil, fmt.Errorf("facade %s: %w", d.Module, err)
		}
		desc := &facade.Descriptor{
			OriginalType: d.Original,
			FacadeModule: d.Module,
			Applies:      applies,
		}
		for _, m := range d.Methods {
			sig, err := parseSig(m.Params, m.Results)
			if err != nil {
				return nil, fmt.Errorf("facade %s method %s: %w", d.Module, m.Name, err)
			}
			desc.Methods = append(desc.Methods, facade.MethodForward{
				Name: m.Name, Sig: sig,
				HostModule: m.HostModule, HostName: m.HostName,
			})
		}
		for _, f := range d.Fields {
			vt, err := parseValTypeName(f.ValType)
			if err != nil {
				return nil, fmt.Errorf("facade %s field %s: %w", d.Module, f.Name, err)
			}
			desc.Fields = append(desc.Fields, facade.FieldForward{
				Name: f.Name, ValType: vt, Mutable: f.Mutable,
				HostModule: f.HostModule, HostName: f.HostName,
				AccessorModule: f.AccessorModule, AccessorName: f.AccessorName,
				Default: f.Default,
			})
		}
		for _, c := range d.Conversions {
			vt, err := parseValTypeName(c.ValType)
			if err != nil {
				return nil, fmt.Errorf("facade %s conversion %s: %w", d.Module, c.Name, err)
			}
			desc.Conversions = append(desc.Conversions, facade.Conversion{Name: c.Name, ValType: vt})
		}
		if err := reg.Add(desc); err != nil {
			return nil, err
		}
	}
	return reg.Freeze(), nil
}

func parseSig(params, results []string) (metadata.Signature, error) {
	var sig metadata.Signature
	for _, p := range params {
		vt, err := parseValTypeName(p)
		if err != nil {
			return metadata.Signature{}, err
		}
		sig.Params = append(sig.Params, vt)
	}
	for _, r := range results {
		vt, err := parseValTypeName(r)
		if err != nil {
			return metadata.Signature{}, err
		}
		sig.Results = append(sig.Results, vt)
	}
	return sig, nil
}

func parseValTypeName(name string) (api.ValueType, error) {
	switch name {
	case "i32":
		return api.ValueTypeI32, nil
	case "i64":
		return api.ValueTypeI64, nil
	case "f32":
		return api.ValueTypeF32, nil
	case "f64":
		return api.ValueTypeF64, nil
	default:
		return 0, fmt.Errorf("unknown value type %q", name)
	}
}

func parseRefKind(name string) (rewrite.RefKind, error) {
	switch name {
	case "", "any":
		return rewrite.RefAny, nil
	case "type":
		return rewrite.RefType, nil
	case "method":
		return rewrite.RefMethod, nil
	case "field":
		return rewrite.RefField, nil
	default:
		return 0, fmt.Errorf("unknown reference kind %q", name)
	}
}

func parseAction(name string) (rewrite.Action, error) {
	switch name {
	case "redirect-to-facade":
		return rewrite.ActionRedirectToFacade, nil
	case "rename-member":
		return rewrite.ActionRenameMember, nil
	case "retarget-type":
		return rewrite.ActionRetargetType, nil
	default:
		return 0, fmt.Errorf("unknown action %q", name)
	}
}
