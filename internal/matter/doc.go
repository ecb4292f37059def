// Package matter models bridged devices as Matter-style endpoint nodes.
//
// Each configured device becomes a Node: a small attribute graph organised
// into named clusters (onOff, levelControl, colorControl, switch), mirroring
// how a Matter bridge exposes endpoints to controllers. The bridge writes
// device state into the node, and reads controller intent back out through
// attribute subscriptions.
//
// The package deliberately stops at the data model. There is no commissioning,
// no fabric management, and no Matter wire protocol here; the node graph is
// the contract between the MQTT side of the bridge and whatever sits above it.
//
// # Concurrency
//
// Nodes are safe for concurrent use. Attribute writes take the node lock;
// subscriber callbacks run after the lock is released, in subscription order,
// on the calling goroutine. Callbacks must not assume they hold the node lock
// and may call back into the node.
package matter
