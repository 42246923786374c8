package handler

import (
	"chirp/internal/models"
	"chirp/internal/repository"
)

// MessageView is a message enriched with its seen-set and resolved sender.
// Sender is null when the sending account was deleted.
type MessageView struct {
	models.Message
	SeenBy []uint       `json:"seen_by"`
	Sender *models.User `json:"sender"`
}

// ConversationView is a conversation enriched with resolved participants
// (deleted users dropped) and the newest message for preview.
type ConversationView struct {
	models.Conversation
	Participants []models.User `json:"participants"`
	LastMessage  *MessageView  `json:"last_message"`
}

// PresenceEntry pairs a requested user ID with its presence row, null when
// the user has never reported presence.
type PresenceEntry struct {
	UserID   uint             `json:"user_id"`
	Presence *models.Presence `json:"presence"`
}

// Views assembles the enriched payloads served by both the REST handlers
// and the live subscribe endpoint, so a pushed update and a fresh GET are
// byte-for-byte the same shape.
type Views struct {
	users *repository.UserRepository
	convs *repository.ConversationRepository
	msgs  *repository.MessageRepository
	pres  *repository.PresenceRepository
}

func NewViews(users *repository.UserRepository, convs *repository.ConversationRepository, msgs *repository.MessageRepository, pres *repository.PresenceRepository) *Views {
	return &Views{users: users, convs: convs, msgs: msgs, pres: pres}
}

func (v *Views) usersByID(ids []uint) (map[uint]models.User, error) {
	resolved, err := v.users.GetManyByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(resolved))
	for _, u := range resolved {
		byID[u.ID] = u
	}
	return byID, nil
}

func (v *Views) messageView(msg *models.Message, byID map[uint]models.User) MessageView {
	view := MessageView{Message: *msg, SeenBy: msg.SeenByIDs()}
	if sender, ok := byID[msg.SenderID]; ok {
		s := sender
		view.Sender = &s
	}
	return view
}

// MessageList returns all messages of a conversation oldest-first, senders
// resolved and missing ones left null.
func (v *Views) MessageList(conversationID uint) ([]MessageView, error) {
	msgs, err := v.msgs.ListByConversation(conversationID)
	if err != nil {
		return nil, err
	}
	senderIDs := make([]uint, 0, len(msgs))
	for i := range msgs {
		senderIDs = append(senderIDs, msgs[i].SenderID)
	}
	byID, err := v.usersByID(senderIDs)
	if err != nil {
		return nil, err
	}
	views := make([]MessageView, 0, len(msgs))
	for i := range msgs {
		views = append(views, v.messageView(&msgs[i], byID))
	}
	return views, nil
}

// ConversationView enriches one conversation (participants must be
// preloaded).
func (v *Views) ConversationView(conv *models.Conversation) (ConversationView, error) {
	byID, err := v.usersByID(conv.ParticipantIDs())
	if err != nil {
		return ConversationView{}, err
	}
	view := ConversationView{Conversation: *conv, Participants: make([]models.User, 0, len(byID))}
	for _, pid := range conv.ParticipantIDs() {
		if u, ok := byID[pid]; ok {
			view.Participants = append(view.Participants, u)
		}
	}
	last, err := v.msgs.LastInConversation(conv.ID)
	if err != nil {
		return ConversationView{}, err
	}
	if last != nil {
		mv := v.messageView(last, byID)
		if mv.Sender == nil {
			// sender may be outside the participant set after leaving a group
			if sender, err := v.users.GetByID(last.SenderID); err == nil {
				mv.Sender = sender
			}
		}
		view.LastMessage = &mv
	}
	return view, nil
}

// ConversationList returns the caller's conversations newest-activity-first,
// each enriched for list rendering.
func (v *Views) ConversationList(userID uint) ([]ConversationView, error) {
	convs, err := v.convs.ListForUser(userID)
	if err != nil {
		return nil, err
	}
	views := make([]ConversationView, 0, len(convs))
	for i := range convs {
		view, err := v.ConversationView(&convs[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// PresenceList resolves presence for a batch of users, preserving request
// order and emitting null entries for users without a presence row.
func (v *Views) PresenceList(userIDs []uint) ([]PresenceEntry, error) {
	rows, err := v.pres.GetByUserIDs(userIDs)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uint]models.Presence, len(rows))
	for _, p := range rows {
		byUser[p.UserID] = p
	}
	entries := make([]PresenceEntry, 0, len(userIDs))
	for _, uid := range userIDs {
		entry := PresenceEntry{UserID: uid}
		if p, ok := byUser[uid]; ok {
			pp := p
			entry.Presence = &pp
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
