package env

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver expands {{...}} placeholders in request URLs, headers and bodies:
//
//	{{name}}        a variable from --var, an env file or the config
//	{{$NAME}}       a process environment variable
//	{{uuid()}}      a built-in function (see Functions)
//
// A Resolver is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	funcs     *Functions
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]string),
		funcs:     NewFunctions(),
	}
}

func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Resolve expands every placeholder in input. Placeholders that cannot be
// resolved are left in place and reported in the error.
func (r *Resolver) Resolve(input string) (string, error) {
	var unresolved []string
	out := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.lookup(expr); ok {
			return val
		}
		unresolved = append(unresolved, expr)
		return match
	})
	if len(unresolved) > 0 {
		return out, &UnresolvedError{Names: unresolved}
	}
	return out, nil
}

// ResolveAll resolves every value of values, collecting all unresolved names.
func (r *Resolver) ResolveAll(values map[string]string) (map[string]string, error) {
	result := make(map[string]string, len(values))
	var unresolved []string
	for k, v := range values {
		resolved, err := r.Resolve(v)
		var u *UnresolvedError
		if errors.As(err, &u) {
			unresolved = append(unresolved, u.Names...)
		}
		result[k] = resolved
	}
	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		return result, &UnresolvedError{Names: unresolved}
	}
	return result, nil
}

func (r *Resolver) lookup(expr string) (string, bool) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		return os.LookupEnv(name)
	}

	if strings.Contains(expr, "(") {
		result, ok := r.funcs.Call(expr)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%v", result), true
	}

	return r.GetVariable(expr)
}

// UnresolvedError lists placeholders Resolve could not expand.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return "unresolved variables: " + strings.Join(e.Names, ", ")
}
