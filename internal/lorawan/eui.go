package lorawan

// EUILength is the size of a LoRaWAN EUI-64 in bytes.
const EUILength = 8

// KeyLength is the size of an AES-128 root key in bytes.
const KeyLength = 16

// euiSeparator is the only separator accepted in EUI text.
const euiSeparator = '-'

// DevEUI is the globally unique identifier of an end device.
type DevEUI [EUILength]byte

// JoinEUI identifies the join server an end device joins through (AppEUI in LoRaWAN 1.0).
type JoinEUI [EUILength]byte

// ParseDevEUI parses "00-11-22-33-44-55-66-77" or "0011223344556677".
func ParseDevEUI(s string) (DevEUI, error) {
	var eui DevEUI
	b, err := ParseFixedHex(s, EUILength, euiSeparator)
	if err != nil {
		return eui, err
	}
	copy(eui[:], b)
	return eui, nil
}

// MustParseDevEUI is like ParseDevEUI but panics on malformed input.
// Intended for constants in tests and examples.
func MustParseDevEUI(s string) DevEUI {
	eui, err := ParseDevEUI(s)
	if err != nil {
		panic(err)
	}
	return eui
}

// String returns the canonical hyphenated lowercase form
func (e DevEUI) String() string {
	return formatHex(e[:], string(euiSeparator))
}

// MarshalText implements encoding.TextMarshaler
func (e DevEUI) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *DevEUI) UnmarshalText(text []byte) error {
	eui, err := ParseDevEUI(string(text))
	if err != nil {
		return err
	}
	*e = eui
	return nil
}

// ParseJoinEUI parses a join EUI using the same rules as ParseDevEUI.
func ParseJoinEUI(s string) (JoinEUI, error) {
	var eui JoinEUI
	b, err := ParseFixedHex(s, EUILength, euiSeparator)
	if err != nil {
		return eui, err
	}
	copy(eui[:], b)
	return eui, nil
}

// MustParseJoinEUI is like ParseJoinEUI but panics on malformed input.
func MustParseJoinEUI(s string) JoinEUI {
	eui, err := ParseJoinEUI(s)
	if err != nil {
		panic(err)
	}
	return eui
}

// String returns the canonical hyphenated lowercase form
func (e JoinEUI) String() string {
	return formatHex(e[:], string(euiSeparator))
}

// MarshalText implements encoding.TextMarshaler
func (e JoinEUI) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *JoinEUI) UnmarshalText(text []byte) error {
	eui, err := ParseJoinEUI(string(text))
	if err != nil {
		return err
	}
	*e = eui
	return nil
}

// AppKey is the 128-bit root key provisioned to an end device.
type AppKey [KeyLength]byte

// ParseAppKey parses 32 hex digits, or 16 octets joined by one consistent
// separator of the caller's choosing (space, ':', '-', ...).
func ParseAppKey(s string) (AppKey, error) {
	var key AppKey
	b, err := ParseFixedHex(s, KeyLength, 0)
	if err != nil {
		return key, err
	}
	copy(key[:], b)
	return key, nil
}

// MustParseAppKey is like ParseAppKey but panics on malformed input.
func MustParseAppKey(s string) AppKey {
	key, err := ParseAppKey(s)
	if err != nil {
		panic(err)
	}
	return key
}

// String returns the display form: octets separated by single spaces.
func (k AppKey) String() string {
	return formatHex(k[:], " ")
}

// WireString returns the form sent to the gateway: 32 hex digits, no separators.
func (k AppKey) WireString() string {
	return formatHex(k[:], "")
}

// Masked returns the display form with all but the last two octets hidden,
// for output that may end up in logs or terminals.
func (k AppKey) Masked() string {
	return "** ** ** ** ** ** ** ** ** ** ** ** ** ** " + formatHex(k[KeyLength-2:], " ")
}
