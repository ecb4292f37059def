package device

// TypeName identifies a registered device type.
//
// Names follow the Matter device type naming used by controllers, so a
// config line reads the same as the endpoint it produces.
type TypeName string

// Built-in device type names.
const (
	// TypeOnOffPlugInUnit and TypeOnOffLight share behaviour; they differ
	// only in the device type the endpoint advertises to controllers.
	TypeOnOffPlugInUnit TypeName = "OnOffPlugInUnitDevice"
	TypeOnOffLight      TypeName = "OnOffLightDevice"

	TypeDimmableLight      TypeName = "DimmableLightDevice"
	TypeExtendedColorLight TypeName = "ExtendedColorLightDevice"
	TypeGenericSwitch      TypeName = "GenericSwitchDevice"
	TypeTelevision         TypeName = "TelevisionDevice"
)

// Capability is a descriptive tag for what a device type implements.
//
// The set is metadata for introspection (the status API reports it);
// behaviour lives in each type's sync logic, not in capability dispatch.
type Capability string

// Recognised capabilities.
const (
	CapabilityAvailability Capability = "availability"
	CapabilityOnOff        Capability = "onoff"
	CapabilityDimming      Capability = "dimming"
	CapabilityColor        Capability = "color"
	CapabilitySwitch       Capability = "switch"
)

// Topic roles referenced by the built-in device types.
//
// A role is the key a DeviceConfig uses in its topics map; the value is the
// broker topic string for that role. "get" roles are topics the device
// publishes state on (the bridge subscribes); "set" roles are topics the
// bridge publishes commands on.
const (
	TopicGetOnline     = "getOnline"
	TopicGetOn         = "getOn"
	TopicSetOn         = "setOn"
	TopicGetBrightness = "getBrightness"
	TopicSetBrightness = "setBrightness"
	TopicGetRGB        = "getRGB"
	TopicSetRGB        = "setRGB"
	TopicSetCommand    = "setCommand"
	TopicGetState      = "getState"
	TopicSetPower      = "setPower"
)

// Option names recognised by the built-in device types.
const (
	OptionOnValue      = "onValue"
	OptionOffValue     = "offValue"
	OptionOnlineValue  = "onlineValue"
	OptionOfflineValue = "offlineValue"
	OptionHex          = "hex"
	OptionHexPrefix    = "hexPrefix"
	OptionCommandValue = "commandValue"
)
