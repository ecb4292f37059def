package matter

// Cluster names used by the bridge's device types.
//
// Names follow the Matter specification's cluster naming in lowerCamelCase,
// matching how controllers and client SDKs label them.
const (
	ClusterBasicInformation = "basicInformation"
	ClusterOnOff            = "onOff"
	ClusterLevelControl     = "levelControl"
	ClusterColorControl     = "colorControl"
	ClusterSwitch           = "switch"
)

// Attribute names within the clusters above.
const (
	// AttrReachable lives in basicInformation and tracks device availability.
	AttrReachable = "reachable"

	// AttrOnOff is the boolean power state in the onOff cluster.
	AttrOnOff = "onOff"

	// AttrCurrentLevel is the 0-254 brightness level in levelControl.
	AttrCurrentLevel = "currentLevel"

	// AttrCurrentHue and AttrCurrentSaturation are the 0-254 scaled colour
	// coordinates in colorControl.
	AttrCurrentHue        = "currentHue"
	AttrCurrentSaturation = "currentSaturation"

	// AttrCurrentPosition is the switch position in the switch cluster.
	AttrCurrentPosition = "currentPosition"
)

// Event names emitted by nodes.
const (
	// EventInitialPress signals a momentary switch activation on the
	// switch cluster.
	EventInitialPress = "initialPress"
)

// ClusterShape describes one cluster an endpoint carries.
//
// Features lists optional cluster features the endpoint supports
// (e.g. "hueSaturation" on colorControl). An empty list means the
// mandatory feature set only.
type ClusterShape struct {
	Name     string
	Features []string
}

// Shape describes the endpoint composition of a device type: which Matter
// device type it advertises and which clusters it carries.
//
// Shapes are built once by device type descriptors and shared read-only
// between all nodes of that type.
type Shape struct {
	// DeviceType is the Matter device type name (e.g. "DimmableLightDevice").
	DeviceType string

	// Clusters lists the clusters present on the endpoint, in a stable order.
	Clusters []ClusterShape
}

// HasCluster reports whether the shape carries the named cluster.
func (s Shape) HasCluster(name string) bool {
	for _, c := range s.Clusters {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ClusterNames returns the cluster names in declaration order.
func (s Shape) ClusterNames() []string {
	names := make([]string, len(s.Clusters))
	for i, c := range s.Clusters {
		names[i] = c.Name
	}
	return names
}
