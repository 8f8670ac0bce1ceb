// Package discovery locates MultiTech Conduit gateways on the local network
// using multicast DNS.
//
// Conduits (mtcap, mtcdt, mtcdtip) advertise their HTTPS management
// interface as "_https._tcp". A scan browses for that service type until the
// timeout expires and keeps only answers whose hostname carries a Conduit
// model prefix.
//
//	gateways, err := discovery.Scan(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, gw := range gateways {
//	    fmt.Println(gw.ProfileName(), gw.Address())
//	}
//
// Discovery needs multicast on the local segment (UDP 5353). Gateways
// behind a router are not found and must be added by address.
package discovery
