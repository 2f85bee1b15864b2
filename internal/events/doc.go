// Package events decouples task publishers from the task subsystem.
//
// The snapshot scheduler publishes TaskRequestEvents describing work to be
// done; the task package subscribes through the EventHandler interface and
// turns requests into persisted background tasks. Neither side imports the
// other, which keeps the daily audit seal free of circular dependencies.
package events
