package inference

import (
	"errors"
	"strings"
)

// Input roles fed from an Encoding.
const (
	roleIDs   = "ids"
	roleMask  = "mask"
	roleTypes = "types"
)

var errNoInputs = errors.New("could not determine ONNX input names")

// modelInput is the part of an ONNX input description used to bind encoding
// tensors to it.
type modelInput struct {
	Name  string
	Int64 bool
}

// boundInput pairs a model input name with the encoding tensor it receives.
type boundInput struct {
	Name string
	Role string
}

func inputRole(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "input_ids") || n == "ids":
		return roleIDs
	case strings.Contains(n, "attention_mask") || n == "mask":
		return roleMask
	case strings.Contains(n, "token_type") || strings.Contains(n, "segment"):
		return roleTypes
	}
	return ""
}

// resolveInputs binds inputs by name. When no name is recognised it falls
// back to the first int64 inputs in declaration order, read as ids, mask and
// token types.
func resolveInputs(inputs []modelInput) ([]boundInput, error) {
	var bound []boundInput
	for _, in := range inputs {
		if role := inputRole(in.Name); role != "" {
			bound = append(bound, boundInput{Name: in.Name, Role: role})
		}
	}
	if len(bound) == 0 {
		roles := []string{roleIDs, roleMask, roleTypes}
		for _, in := range inputs {
			if !in.Int64 {
				continue
			}
			bound = append(bound, boundInput{Name: in.Name, Role: roles[len(bound)]})
			if len(bound) == len(roles) {
				break
			}
		}
	}
	if len(bound) == 0 {
		return nil, errNoInputs
	}
	return bound, nil
}
