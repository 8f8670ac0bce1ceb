// Package lorawan holds the LoRaWAN identity and key types used by the allowlist
// tooling, and their translation to and from the gateway's wire JSON.
//
// # Identities
//
// DevEUI and JoinEUI are both 8-byte EUIs but are distinct types so that a join
// server identity can never be compared with, or assigned to, a device identity.
// Their text form is eight lowercase octets joined by '-':
//
//	eui, err := lorawan.ParseDevEUI("00-80-00-00-0a-00-12-34")
//	fmt.Println(eui) // 00-80-00-00-0a-00-12-34
//
// # Keys
//
// AppKey accepts either 32 contiguous hex digits or 16 octets joined by any single
// separator character, which is inferred from the input:
//
//	lorawan.ParseAppKey("2b7e151628aed2a6abf7158809cf4f3c")
//	lorawan.ParseAppKey("2b:7e:15:16:28:ae:d2:a6:ab:f7:15:88:09:cf:4f:3c")
//
// String renders the key space separated for display; WireString renders the
// separator-free form the gateway expects.
//
// # Wire format
//
// Device.ToWire produces a WireEntry, the gateway's allowlist entry:
//
//	{"deveui":"00-80-...","appeui":"...","appkey":"2b7e...","class":"A",
//	 "device_profile_id":"LW102-OTA-EU868","network_profile_id":"DEFAULT-CLASS-A"}
//
// Fields the gateway returns that this package does not manage are kept on the
// WireEntry and written back unchanged.
package lorawan
