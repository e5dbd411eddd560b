package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/client/app"
	"github.com/contactbook/backend/internal/config"
	"github.com/contactbook/backend/internal/domain"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errUsage          = errors.New("wrong number of arguments")
)

type commandKind int

const (
	cmdPush commandKind = iota + 1
	cmdTap
	cmdAppState
	cmdLogout
)

// command is one line of the stdin feed. Supported lines:
//
//	push <chat_id> <message_id>
//	tap <chat_id> <message_id>
//	alert <message_id>
//	background | foreground | logout
type command struct {
	kind  commandKind
	data  map[string]string
	state app.AppState
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, errUsage
	}

	want := map[string]int{"push": 3, "tap": 3, "alert": 2}
	if n, ok := want[fields[0]]; ok && len(fields) != n {
		return command{}, fmt.Errorf("%s: %w", fields[0], errUsage)
	}

	switch fields[0] {
	case "push":
		return command{kind: cmdPush, data: chatData(fields[1], fields[2])}, nil
	case "tap":
		return command{kind: cmdTap, data: chatData(fields[1], fields[2])}, nil
	case "alert":
		p := domain.AlertPayload{MessageID: fields[1], Kind: domain.AlertKindGeneric}
		return command{kind: cmdTap, data: p.ToData()}, nil
	case "background":
		return command{kind: cmdAppState, state: app.Background}, nil
	case "foreground":
		return command{kind: cmdAppState, state: app.Foreground}, nil
	case "logout":
		return command{kind: cmdLogout}, nil
	}
	return command{}, fmt.Errorf("%w: %q", errUnknownCommand, fields[0])
}

func chatData(chatID, messageID string) map[string]string {
	return domain.AlertPayload{ChatID: chatID, MessageID: messageID}.ToData()
}

// feedCommands posts one event per valid line of r until r is exhausted or
// ctx is done
func feedCommands(ctx context.Context, r io.Reader, events *app.Events, logger *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			logger.Warn("ignoring command", zap.String("line", line), zap.Error(err))
			continue
		}
		if !post(ctx, events, cmd) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("command feed stopped", zap.Error(err))
	}
}

func post(ctx context.Context, events *app.Events, cmd command) bool {
	var sent bool
	switch cmd.kind {
	case cmdPush:
		sent = send(ctx, events.PushReceived, cmd.data)
	case cmdTap:
		sent = send(ctx, events.PushTapped, cmd.data)
	case cmdAppState:
		sent = send(ctx, events.AppState, cmd.state)
	case cmdLogout:
		sent = send(ctx, events.Logout, struct{}{})
	}
	return sent
}

func send[T any](ctx context.Context, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// launchData builds the payload of the notification the device was
// launched from, or nil when none is configured
func launchData(cfg *config.DeviceConfig) map[string]string {
	kind := domain.AlertKind(cfg.LaunchType)
	if cfg.LaunchChatID == "" && kind != domain.AlertKindGeneric {
		return nil
	}
	data := domain.AlertPayload{
		ChatID:    cfg.LaunchChatID,
		MessageID: cfg.LaunchMessageID,
		Kind:      kind,
	}.ToData()
	if cfg.LaunchMessageID == "" {
		delete(data, domain.KeyMessageID)
	}
	return data
}
