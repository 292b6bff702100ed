package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/slateboard/slateboard/backend-go/internal/document"
)

// BoardLoader fetches the latest persisted document for a board.
type BoardLoader func(ctx context.Context, boardID string) (*document.Board, error)

// BoardSaver persists a board document snapshot.
type BoardSaver func(ctx context.Context, boardID string, doc json.RawMessage) error

type Room struct {
	boardID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *BoardState
}

func NewRoom(boardID string, board *document.Board) *Room {
	return &Room{
		boardID:  boardID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    NewBoardState(board),
	}
}

type Hub struct {
	mu            sync.RWMutex
	rooms         map[string]*Room // boardID -> room
	register      chan *Client
	unregister    chan *Client
	done          chan struct{}
	loader        BoardLoader
	saver         BoardSaver
	snapshotEvery int
}

func NewHub(loader BoardLoader, saver BoardSaver, snapshotEvery int) *Hub {
	if snapshotEvery <= 0 {
		snapshotEvery = 50
	}
	return &Hub{
		rooms:         make(map[string]*Room),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		done:          make(chan struct{}),
		loader:        loader,
		saver:         saver,
		snapshotEvery: snapshotEvery,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Stop shuts the hub down and flushes every room's unsaved document.
func (h *Hub) Stop() {
	close(h.done)

	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()

	for _, room := range rooms {
		h.persistRoom(room)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		board, err := h.loader(ctx, client.BoardID)
		cancel()
		if err != nil {
			h.mu.Unlock()
			slog.Error("load board for room", "error", err, "board", client.BoardID)
			client.Send(errorMessage("board unavailable"))
			close(client.send)
			return
		}
		room = NewRoom(client.BoardID, board)
		h.rooms[client.BoardID] = room
	}

	// One live session per user: a new connection for the same user
	// replaces the previous one.
	var replaced *Client
	for _, existing := range room.clients {
		if existing.UserID == client.UserID {
			replaced = existing
			break
		}
	}
	if replaced != nil {
		delete(room.clients, replaced.ClientID)
	}

	room.clients[client.ClientID] = client
	h.mu.Unlock()

	if replaced != nil {
		replaced.Send(&Message{Type: TypeReplaced})
		close(replaced.send)
		slog.Info("session replaced", "user", client.UserID, "board", client.BoardID)
	}

	welcomePayload, _ := json.Marshal(WelcomePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
		BoardID:  client.BoardID,
	})
	client.Send(&Message{Type: TypeWelcome, Payload: welcomePayload})

	// Send the authoritative document to the new client
	doc, seq, err := room.state.Document()
	if err != nil {
		slog.Error("encode board for sync", "error", err, "board", client.BoardID)
	} else {
		syncPayload, _ := json.Marshal(DocSyncPayload{Document: doc, ServerSeq: seq})
		client.Send(&Message{Type: TypeDocSync, Seq: seq, Payload: syncPayload})
	}

	// Send current presence state to new client
	stateMsg := room.presence.StateMessage()
	if stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
		Role:        client.Role,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(client.BoardID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok {
		h.mu.Unlock()
		return
	}

	// A replaced connection has already been dropped from the room; its
	// read pump still unregisters when the socket dies.
	if current, ok := room.clients[client.ClientID]; !ok || current != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.BoardID)
	}
	h.mu.Unlock()

	if empty {
		h.persistRoom(room)
	}

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(client.BoardID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName
	presence.Role = sender.Role

	h.mu.RLock()
	room, ok := h.rooms[sender.BoardID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(sender.BoardID, outMsg, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var payload OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("invalid op payload", "error", err, "user", sender.UserID)
		return
	}
	op := payload.Operation

	h.mu.RLock()
	room, ok := h.rooms[sender.BoardID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	// Board-level operations are reserved for the teacher.
	if (op.Type == OpBoardClear || op.Type == OpBoardRename) && sender.Role != "teacher" {
		h.sendNack(sender, op.ID, "only the teacher can do that")
		return
	}

	serverSeq, err := room.state.ApplyOperation(op)
	if err != nil {
		h.sendNack(sender, op.ID, err.Error())
		return
	}

	ackPayload, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       serverSeq,
		ServerTimestamp: GetServerTimestamp(),
	})
	sender.Send(&Message{Type: TypeOpAck, Seq: serverSeq, Payload: ackPayload})

	broadcastPayload, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: serverSeq,
	})
	broadcastMsg := &Message{
		Type:    TypeOpBroadcast,
		UserID:  sender.UserID,
		Seq:     serverSeq,
		Payload: broadcastPayload,
	}
	h.broadcastToRoom(sender.BoardID, broadcastMsg, sender.ClientID)

	if room.state.DirtyOps() >= h.snapshotEvery {
		h.persistRoom(room)
	}
}

func (h *Hub) sendNack(client *Client, opID, reason string) {
	payload, _ := json.Marshal(OperationNackPayload{
		OperationID: opID,
		Reason:      reason,
	})
	client.Send(&Message{Type: TypeOpNack, Payload: payload})
}

func (h *Hub) persistRoom(room *Room) {
	if room.state.DirtyOps() == 0 {
		return
	}

	doc, seq, err := room.state.Snapshot()
	if err != nil {
		slog.Error("snapshot board", "error", err, "board", room.boardID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.saver(ctx, room.boardID, doc); err != nil {
		slog.Error("persist board", "error", err, "board", room.boardID)
		return
	}
	slog.Info("board persisted", "board", room.boardID, "serverSeq", seq)
}

func (h *Hub) broadcastToRoom(boardID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[boardID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func errorMessage(reason string) *Message {
	payload, _ := json.Marshal(map[string]string{"reason": reason})
	return &Message{Type: TypeError, Payload: payload}
}
