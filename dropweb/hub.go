// Package dropweb broadcasts distributor events to websocket
// subscribers: root rotations, holder rotations and merkle claims.
package dropweb

import (
	"context"
	"encoding/json"

	"github.com/holiman/uint256"

	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/log"
)

const (
	SubRootChange   = "subscribeRootChange"
	SubHolderChange = "subscribeHolderChange"
	SubClaims       = "subscribeClaims"
)

// SubscriptionRequest is the incoming websocket message.
type SubscriptionRequest struct {
	Method string `json:"method"`
}

// Hub manages client registration and broadcasting. It implements
// distributor.Notifier; event callbacks never block the claim path —
// a slow client gets dropped, not waited for.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	ctx        context.Context
	cancel     context.CancelFunc
}

type broadcastMsg struct {
	method string
	data   []byte
}

func NewHub(ctx context.Context) *Hub {
	cctx, cancel := context.WithCancel(ctx)
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		ctx:        cctx,
		cancel:     cancel,
	}
}

// Run owns the client set; registration and broadcast are serialized
// here so no locks are needed.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			for client := range h.clients {
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if !client.subscribed(msg.method) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) publish(method string, result interface{}) {
	payload := struct {
		Method string      `json:"method"`
		Result interface{} `json:"result"`
	}{Method: method, Result: result}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error(log.WebMonitoring, "event marshal failed", "method", method, "err", err)
		return
	}
	select {
	case h.broadcast <- broadcastMsg{method: method, data: data}:
	default:
		log.Warn(log.WebMonitoring, "event dropped, broadcast queue full", "method", method)
	}
}

// RootChanged implements distributor.Notifier.
func (h *Hub) RootChanged(oldRoot common.Hash, newRoot common.Hash) {
	h.publish(SubRootChange, struct {
		Old common.Hash `json:"old"`
		New common.Hash `json:"new"`
	}{Old: oldRoot, New: newRoot})
}

// HolderChanged implements distributor.Notifier.
func (h *Hub) HolderChanged(oldHolder common.Address, newHolder common.Address) {
	h.publish(SubHolderChange, struct {
		Old common.Address `json:"old"`
		New common.Address `json:"new"`
	}{Old: oldHolder, New: newHolder})
}

// MerkleClaimed implements distributor.Notifier.
func (h *Hub) MerkleClaimed(account common.Address, delta *uint256.Int, beneficiary common.Address, root common.Hash) {
	h.publish(SubClaims, struct {
		Account     common.Address `json:"account"`
		Delta       *uint256.Int   `json:"delta"`
		Beneficiary common.Address `json:"beneficiary"`
		Root        common.Hash    `json:"root"`
	}{Account: account, Delta: delta, Beneficiary: beneficiary, Root: root})
}
