// Package model defines the model-definition components consumed by the
// ABC calibration orchestrator: observed data, exposure and reinfection
// covariates, spatial structure, transition priors and initial compartment
// sizes. Each component validates its own dimensions at construction;
// cross-component compatibility is checked by the orchestrator.
package model

// ComponentType discriminates the role of a model component. The
// orchestrator checks discriminants at construction to detect components
// passed out of order.
type ComponentType int

const (
	DataComponent ComponentType = iota + 1
	ExposureComponent
	ReinfectionComponent
	DistanceComponent
	TransitionComponent
	InitialValueComponent
	ControlComponent
)

// String returns the component role name.
func (c ComponentType) String() string {
	switch c {
	case DataComponent:
		return "dataModel"
	case ExposureComponent:
		return "exposureModel"
	case ReinfectionComponent:
		return "reinfectionModel"
	case DistanceComponent:
		return "distanceModel"
	case TransitionComponent:
		return "transitionPriors"
	case InitialValueComponent:
		return "initialValueContainer"
	case ControlComponent:
		return "samplingControl"
	default:
		return "unknown"
	}
}

// Component is the capability every model component exposes so the
// orchestrator can verify it received the right object in each position.
type Component interface {
	ComponentType() ComponentType
}
