package config

import "time"

// DeviceConfig configures the headless device runtime
type DeviceConfig struct {
	ServerURL   string
	SessionFile string
	Platform    string
	// PushToken is the token the console platform reports as its device token
	PushToken string
	Emulator  bool

	// LaunchChatID, LaunchMessageID and LaunchType describe the notification
	// the device pretends it was launched from
	LaunchChatID    string
	LaunchMessageID string
	LaunchType      string
	// Commands enables the stdin command feed
	Commands bool

	LockDuration   time.Duration
	LedgerCapacity int
	ReconnectDelay time.Duration
	Env            string
}

// LoadDevice reads the device runtime configuration from the environment
func LoadDevice() *DeviceConfig {
	return &DeviceConfig{
		ServerURL:      getEnv("DEVICE_SERVER_URL", "http://localhost:8080"),
		SessionFile:    getEnv("DEVICE_SESSION_FILE", "./session.json"),
		Platform:       getEnv("DEVICE_PLATFORM", "android"),
		PushToken:      getEnv("DEVICE_PUSH_TOKEN", ""),
		Emulator:       getBool("DEVICE_EMULATOR", false),

		LaunchChatID:    getEnv("DEVICE_LAUNCH_CHAT_ID", ""),
		LaunchMessageID: getEnv("DEVICE_LAUNCH_MESSAGE_ID", ""),
		LaunchType:      getEnv("DEVICE_LAUNCH_TYPE", ""),
		Commands:        getBool("DEVICE_COMMANDS", false),

		LockDuration:   getDuration("DEVICE_NAV_LOCK", 2500*time.Millisecond),
		LedgerCapacity: getInt("DEVICE_LEDGER_CAPACITY", 2048),
		ReconnectDelay: getDuration("DEVICE_RECONNECT_DELAY", 3*time.Second),
		Env:            getEnv("ENV", "development"),
	}
}
