package pubsub

// Namespaced returns the effective topic for ns and topic. No separator is
// inserted; delimiter conventions belong to the caller.
func Namespaced(ns, topic string) string {
	return ns + topic
}
