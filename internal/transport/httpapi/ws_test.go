package httpapi

import "testing"

func TestBroadcastDropsClientWithFullBuffer(t *testing.T) {
	h := newHub()

	stalled := &wsClient{send: make(chan stateMessage, 2)}
	healthy := &wsClient{send: make(chan stateMessage, sendBufferSize)}
	h.add(stalled)
	h.add(healthy)

	// Three pushes overflow the stalled client's two-slot buffer.
	for i := 0; i < 3; i++ {
		h.broadcast(stateMessage{Type: "state"})
	}

	h.mu.Lock()
	_, stalledRegistered := h.clients[stalled]
	_, healthyRegistered := h.clients[healthy]
	h.mu.Unlock()

	if stalledRegistered {
		t.Error("expected overflowing client to be dropped")
	}
	if !healthyRegistered {
		t.Error("expected keeping-up client to stay registered")
	}

	// The dropped client's channel is closed so its write pump exits.
	drained := 0
	for range stalled.send {
		drained++
	}
	if drained != 2 {
		t.Errorf("expected 2 buffered messages before the drop, got %d", drained)
	}

	// Further broadcasts reach only the remaining client.
	h.broadcast(stateMessage{Type: "state"})
	if got := len(healthy.send); got != 4 {
		t.Errorf("expected 4 queued messages, got %d", got)
	}
}

func TestHubRemoveIsIdempotent(t *testing.T) {
	h := newHub()

	c := &wsClient{send: make(chan stateMessage, 1)}
	h.add(c)
	h.remove(c)
	h.remove(c)

	if _, open := <-c.send; open {
		t.Error("expected send channel to be closed")
	}
}
