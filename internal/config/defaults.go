package config

const (
	defaultConfigPath        = "~/.config/jukebox/config.toml"
	defaultAlbumsDir         = "~/Music/albums"
	defaultLogDir            = "~/.local/state/jukebox/logs"
	defaultSocketName        = "jukebox.sock"
	defaultHistoryName       = "history.db"
	defaultEngineBinary      = "mpg123"
	defaultTagQuiescenceMS   = 200
	defaultPersistFrames     = 100
	defaultRampIntervalMS    = 3000
	defaultLayout            = LayoutThree
	defaultSamplingMS        = 10
	defaultCheckCycleMS      = 1000
	defaultLongPressMS       = 1000
	defaultVeryLongPressMS   = 10000
	defaultDeviceName        = "gpio-keys"
	defaultButton1Code       = 165 // KEY_PREVIOUSSONG
	defaultButton2Code       = 163 // KEY_NEXTSONG
	defaultHistoryRetention  = 365
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultAudioExtension    = ".mp3"
	defaultRemoteControlFlag = "-R"
)

// Control layouts.
const (
	LayoutThree = "three"
	LayoutOne   = "one"
)

// defaultRotaryCodes are KEY_F1 through KEY_F12.
var defaultRotaryCodes = []int{59, 60, 61, 62, 63, 64, 65, 66, 67, 68, 87, 88}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AlbumsDir: defaultAlbumsDir,
			StateDir:  defaultStateDir(),
			LogDir:    defaultLogDir,
		},
		Engine: Engine{
			Binary:          defaultEngineBinary,
			Args:            []string{defaultRemoteControlFlag},
			TagQuiescenceMS: defaultTagQuiescenceMS,
		},
		Playback: Playback{
			Extensions:     []string{defaultAudioExtension},
			PersistFrames:  defaultPersistFrames,
			RampIntervalMS: defaultRampIntervalMS,
		},
		Controls: Controls{
			Layout:          defaultLayout,
			SamplingMS:      defaultSamplingMS,
			CheckCycleMS:    defaultCheckCycleMS,
			LongPressMS:     defaultLongPressMS,
			VeryLongPressMS: defaultVeryLongPressMS,
		},
		Frontend: Frontend{
			DeviceName:  defaultDeviceName,
			Button1Code: defaultButton1Code,
			Button2Code: defaultButton2Code,
			RotaryCodes: append([]int(nil), defaultRotaryCodes...),
			Hotplug:     true,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetention,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
