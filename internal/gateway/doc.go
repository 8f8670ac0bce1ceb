// Package gateway is a client for the HTTPS management API of MultiTech Conduit
// gateways (mtcap, mtcdt).
//
// Every call is addressed as https://<host>/api/<path>?token=<session token>
// and answered with a status envelope:
//
//	{"status": "success", "result": ...}
//	{"status": "fail", "error": "..."}
//
// Client unwraps the envelope: Get returns the "result" member, mutating calls
// return nil on success. Anything else is an *Error whose Type tells transport
// failures, rejected sessions, gateway refusals and malformed bodies apart.
//
// # Usage Example
//
//	client := gateway.NewClient("192.168.2.1", true)
//	if err := client.Login("admin", password); err != nil {
//	    return err
//	}
//	defer client.Logout()
//
//	if err := client.SetMode(gateway.ModeNetworkServer); err != nil {
//	    fmt.Println(gateway.ShortMessage(err))
//	}
//
// Changes made through Put, Post and Delete stay pending on the gateway until
// Commit (POST command/save_apply) is called.
package gateway
