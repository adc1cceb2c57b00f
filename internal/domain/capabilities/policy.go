package capabilities

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/IGLOU-EU/go-wildcard/v2"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Request is a single permission query.
type Request struct {
	Scope     Scope
	Reference string // empty asks about the whole scope
}

// ConditionEnv is the environment a grant's When expression is evaluated in.
type ConditionEnv struct {
	Scope     string            `expr:"scope"`
	Reference string            `expr:"reference"`
	OS        string            `expr:"os"`
	Arch      string            `expr:"arch"`
	Env       map[string]string `expr:"env"`
}

// Policy represents an authorization policy that determines if a requested operation is allowed.
// It is safe for concurrent use.
type Policy struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

// NewPolicy creates a new domain policy.
func NewPolicy() *Policy {
	return &Policy{
		programs: make(map[string]*vm.Program),
	}
}

// IsGranted checks if a request is covered by any of the granted capabilities.
func (p *Policy) IsGranted(request Request, granted []Capability) bool {
	for _, grant := range granted {
		if !grant.Scope.Covers(request.Scope) {
			continue
		}
		if !matchPattern(request, grant) {
			continue
		}
		if grant.When != "" && !p.evaluateCondition(grant.When, request) {
			continue
		}
		return true
	}
	return false
}

// ValidateCondition compiles a When expression and reports any error.
func ValidateCondition(condition string) error {
	if _, err := compileCondition(condition); err != nil {
		return fmt.Errorf("invalid condition %q: %w", condition, err)
	}
	return nil
}

func matchPattern(request Request, grant Capability) bool {
	if grant.IsUnrestricted() {
		return true
	}
	// A restricted grant never answers a query about the whole scope.
	if request.Reference == "" {
		return false
	}
	if request.Scope.IsFilesystem() {
		return matchFilesystemPattern(request.Reference, grant.Pattern)
	}
	return wildcard.Match(grant.Pattern, request.Reference)
}

// matchFilesystemPattern reports whether path is covered by pattern.
//
// Supported forms:
//   - "/dir/**" or "/dir/*": dir and everything below it
//   - globs understood by filepath.Match
//   - plain paths: the path itself and, for directories, its descendants
func matchFilesystemPattern(path, pattern string) bool {
	if matchesAny(pattern, rootFilesystemPatterns) {
		return true
	}
	if strings.ContainsRune(path, 0) || strings.ContainsRune(pattern, 0) {
		return false
	}

	ref, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	for _, suffix := range []string{"/**", "/*"} {
		if strings.HasSuffix(pattern, suffix) {
			base, err := filepath.Abs(strings.TrimSuffix(pattern, suffix))
			if err != nil {
				return false
			}
			return isWithin(ref, base)
		}
	}

	if strings.ContainsAny(pattern, "*?[") {
		glob, err := filepath.Abs(pattern)
		if err != nil {
			return false
		}
		ok, err := filepath.Match(glob, ref)
		return err == nil && ok
	}

	base, err := filepath.Abs(pattern)
	if err != nil {
		return false
	}
	return isWithin(ref, base)
}

func isWithin(path, dir string) bool {
	if path == dir {
		return true
	}
	if dir == string(filepath.Separator) {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

func (p *Policy) evaluateCondition(condition string, request Request) bool {
	program, err := p.program(condition)
	if err != nil {
		// Uncompilable conditions deny
		return false
	}

	out, err := expr.Run(program, ConditionEnv{
		Scope:     string(request.Scope),
		Reference: request.Reference,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Env:       environMap(),
	})
	if err != nil {
		return false
	}

	ok, isBool := out.(bool)
	return isBool && ok
}

func (p *Policy) program(condition string) (*vm.Program, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if program, ok := p.programs[condition]; ok {
		return program, nil
	}
	program, err := compileCondition(condition)
	if err != nil {
		return nil, err
	}
	p.programs[condition] = program
	return program, nil
}

func compileCondition(condition string) (*vm.Program, error) {
	return expr.Compile(condition, expr.Env(ConditionEnv{}), expr.AsBool())
}

func environMap() map[string]string {
	environ := os.Environ()
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}
	return env
}
