package bus

import (
	"sort"
	"sync"
)

// Registry maps topic names to the set of subscribed agent IDs.
// It has no network awareness; the cluster layer keeps its own peer lists.
type Registry struct {
	mu     sync.RWMutex
	topics map[string]map[string]bool
}

// NewRegistry creates an empty topic registry.
func NewRegistry() *Registry {
	return &Registry{topics: make(map[string]map[string]bool)}
}

// Subscribe records that agentID wants every task published on topic.
// Subscribing twice is a no-op.
func (r *Registry) Subscribe(topic, agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.topics[topic]
	if set == nil {
		set = make(map[string]bool)
		r.topics[topic] = set
	}
	set[agentID] = true
}

// Unsubscribe removes agentID from topic. Unknown pairs are a no-op.
func (r *Registry) Unsubscribe(topic, agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.topics[topic], agentID)
}

// UnsubscribeAll removes agentID from every topic (agent shutdown).
func (r *Registry) UnsubscribeAll(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, set := range r.topics {
		delete(set, agentID)
	}
}

// SubscribersOf returns a consistent snapshot of topic's subscribers,
// sorted so fan-out order is stable.
func (r *Registry) SubscribersOf(topic string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.topics[topic]
	if len(set) == 0 {
		return nil
	}
	subs := make([]string, 0, len(set))
	for id := range set {
		subs = append(subs, id)
	}
	sort.Strings(subs)
	return subs
}

// ActiveTopics returns every topic with at least one subscriber.
func (r *Registry) ActiveTopics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var topics []string
	for topic, set := range r.topics {
		if len(set) > 0 {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

// Topics returns every topic agentID is currently subscribed to.
func (r *Registry) Topics(agentID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var topics []string
	for topic, set := range r.topics {
		if set[agentID] {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}
