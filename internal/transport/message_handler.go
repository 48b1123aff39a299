package transport

import (
	"net/http"

	"thrift-store/internal/domain"
	"thrift-store/internal/middleware"
	"thrift-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SendMessageRequest posts a message about an item. Sellers answering one of
// several buyers name the recipient.
type SendMessageRequest struct {
	Content     string     `json:"content" validate:"required,max=5000"`
	RecipientID *uuid.UUID `json:"recipient_id"`
}

// InboxResponse lists the caller's conversations
type InboxResponse struct {
	Conversations []*domain.Conversation `json:"conversations"`
	Unread        int                    `json:"unread"`
}

// MessageHandler handles buyer/seller conversations
type MessageHandler struct {
	conversation service.ConversationService
	catalog      service.CatalogService
	logger       *zap.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(conversation service.ConversationService, catalog service.CatalogService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{conversation: conversation, catalog: catalog, logger: logger}
}

// RegisterRoutes registers the messaging routes, all of which need a user
func (h *MessageHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/api/messages", h.Inbox)
		r.Get("/api/items/{id}/messages", h.Thread)
		r.Post("/api/items/{id}/messages", h.Send)
		r.Post("/api/items/{id}/messages/read", h.MarkRead)
	})
}

// Inbox returns one entry per conversation with the unread total
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	conversations, err := h.conversation.Inbox(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Inbox", err)
		return
	}

	unread, err := h.conversation.UnreadCount(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Unread count", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, InboxResponse{Conversations: conversations, Unread: unread})
}

// Thread returns the conversation about an item with ?with=<user>. Buyers may
// omit it to talk to the seller.
func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var counterpart uuid.UUID
	if raw := r.URL.Query().Get("with"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid with")
			return
		}
		counterpart = id
	} else {
		item, err := h.catalog.GetItem(r.Context(), itemID)
		if err != nil {
			respondWithServiceError(w, h.logger, "Thread", err)
			return
		}
		if item.SellerID == userID {
			respondWithServiceError(w, h.logger, "Thread", domain.ErrRecipientRequired)
			return
		}
		counterpart = item.SellerID
	}

	messages, err := h.conversation.Thread(r.Context(), itemID, userID, counterpart)
	if err != nil {
		respondWithServiceError(w, h.logger, "Thread", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, messages)
}

// Send posts a message about an item
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	message, err := h.conversation.Send(r.Context(), service.SendInput{
		ItemID:      itemID,
		SenderID:    userID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Send message", err)
		return
	}

	h.logger.Info("Message sent",
		zap.String("item_id", itemID.String()),
		zap.String("sender_id", userID.String()),
		zap.String("recipient_id", message.RecipientID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, message)
}

// MarkRead marks every message the caller received about the item as read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	marked, err := h.conversation.MarkRead(r.Context(), itemID, userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Mark read", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int64{"marked": marked})
}
