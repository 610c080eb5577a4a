package model

import "fmt"

// ElementType describes the BPMN element types relevant for bundle generation.
type ElementType int

const (
	ElementCallActivity ElementType = iota + 1
	ElementEndEvent
	ElementExclusiveGateway
	ElementInclusiveGateway
	ElementParallelGateway
	ElementProcess
	ElementSequenceFlow
	ElementServiceTask
	ElementStartEvent
	ElementUserTask
)

func MapElementType(s string) ElementType {
	switch s {
	case "CALL_ACTIVITY":
		return ElementCallActivity
	case "END_EVENT":
		return ElementEndEvent
	case "EXCLUSIVE_GATEWAY":
		return ElementExclusiveGateway
	case "INCLUSIVE_GATEWAY":
		return ElementInclusiveGateway
	case "PARALLEL_GATEWAY":
		return ElementParallelGateway
	case "PROCESS":
		return ElementProcess
	case "SEQUENCE_FLOW":
		return ElementSequenceFlow
	case "SERVICE_TASK":
		return ElementServiceTask
	case "START_EVENT":
		return ElementStartEvent
	case "USER_TASK":
		return ElementUserTask
	default:
		return 0
	}
}

// mapElementTag maps the local name of a BPMN XML tag to its element type.
func mapElementTag(tag string) ElementType {
	switch tag {
	case "callActivity":
		return ElementCallActivity
	case "endEvent":
		return ElementEndEvent
	case "exclusiveGateway":
		return ElementExclusiveGateway
	case "inclusiveGateway":
		return ElementInclusiveGateway
	case "parallelGateway":
		return ElementParallelGateway
	case "process":
		return ElementProcess
	case "sequenceFlow":
		return ElementSequenceFlow
	case "serviceTask":
		return ElementServiceTask
	case "startEvent":
		return ElementStartEvent
	case "userTask":
		return ElementUserTask
	default:
		return 0
	}
}

func (v ElementType) IsGateway() bool {
	return v == ElementExclusiveGateway || v == ElementInclusiveGateway || v == ElementParallelGateway
}

// IsFormBearing determines if an element of this type carries a runtime form.
func (v ElementType) IsFormBearing() bool {
	return v == ElementStartEvent || v == ElementUserTask
}

func (v ElementType) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v ElementType) String() string {
	switch v {
	case ElementCallActivity:
		return "CALL_ACTIVITY"
	case ElementEndEvent:
		return "END_EVENT"
	case ElementExclusiveGateway:
		return "EXCLUSIVE_GATEWAY"
	case ElementInclusiveGateway:
		return "INCLUSIVE_GATEWAY"
	case ElementParallelGateway:
		return "PARALLEL_GATEWAY"
	case ElementProcess:
		return "PROCESS"
	case ElementSequenceFlow:
		return "SEQUENCE_FLOW"
	case ElementServiceTask:
		return "SERVICE_TASK"
	case ElementStartEvent:
		return "START_EVENT"
	case ElementUserTask:
		return "USER_TASK"
	default:
		return ""
	}
}

func (v *ElementType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapElementType(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid element type data %s", s)
	}
	return nil
}
