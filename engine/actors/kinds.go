package actors

// Event kinds consumed and produced by the engine. The three custom kinds
// implement the per-device encryption key exchange.
const (
	KindProfile         int = 0
	KindContacts        int = 3
	KindSeal            int = 13
	KindGiftWrap        int = 1059
	KindKeyRequest      int = 4454
	KindKeyResponse     int = 4455
	KindRelayList       int = 10002
	KindAnnouncement    int = 10044
	KindMessagingRelays int = 10050
	KindAppData         int = 30078
)

// InboxSubscription names the live gift wrap subscription so it can be torn
// down and rebuilt whenever the encryption key set changes.
const InboxSubscription = "inbox"

// Only the first three advertised messaging relays are honored.
const MaxMessagingRelays = 3

// SecretIdentifier namespaces entries in the local encrypted secret store.
func SecretIdentifier(name string) string {
	return "coop:" + name
}
