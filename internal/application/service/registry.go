package service

import (
	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"
)

var _ output.ToolSet = (*ToolSet)(nil)

// ToolSet keeps tools in the order they were added, so the same run setup
// always yields the same definitions. Adding a name twice replaces the
// earlier tool in place.
type ToolSet struct {
	tools []output.ToolPort
	index map[entity.ToolName]int
}

func NewToolSet(tools ...output.ToolPort) *ToolSet {
	s := &ToolSet{index: make(map[entity.ToolName]int, len(tools))}
	s.Add(tools...)
	return s
}

func (s *ToolSet) Add(tools ...output.ToolPort) {
	for _, t := range tools {
		if i, ok := s.index[t.Name()]; ok {
			s.tools[i] = t
			continue
		}
		s.index[t.Name()] = len(s.tools)
		s.tools = append(s.tools, t)
	}
}

func (s *ToolSet) Lookup(name entity.ToolName) (output.ToolPort, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.tools[i], true
}

func (s *ToolSet) Len() int { return len(s.tools) }

func (s *ToolSet) Definitions() []entity.ToolDefinition {
	defs := make([]entity.ToolDefinition, len(s.tools))
	for i, t := range s.tools {
		defs[i] = entity.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return defs
}
