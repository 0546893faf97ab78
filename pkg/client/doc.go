// Package client implements the milweb remote-object client.
//
// A Session owns an event loop and a handle registry. Opening a URL
// creates an App proxy that walks the application handshake and receives
// the list of published buffers. Each published buffer gets a proxy
// (Display, Image, Array or Message) and buffers that share a group name
// are collected in a Group.
//
// # Concurrency
//
// Every proxy lives on the session's event loop. Proxy methods and the
// handle-based functions of Session must be called from the loop, which
// is where hook handlers run. Other goroutines use Session.Do:
//
//	sess := client.NewSession(client.DefaultConfig())
//	sess.Start()
//	defer sess.Close()
//
//	app, err := sess.Connect(ctx, "ws://localhost:7681")
//	if err != nil {
//	    return err
//	}
//	sess.Do(ctx, func() {
//	    h := app.Connect("Display1")
//	    sess.ObjHook(h, protocol.HookUpdateWeb, onFrame, nil)
//	})
//
// Do must not be called from the loop itself.
//
// # Proxy lifecycle
//
//	Disconnected ──connect──► Connecting ──open──► Connected
//	      ▲                                            │ OBJECT_INFO
//	      │                                            ▼
//	      └──────────── close / free ─────────── Initialized
//	                                                   │ SET_PARAMETERS
//	                                                   ▼
//	                                              Subscribed
//
// Each proxy has its own WebSocket to the session URL. Once subscribed and
// hooked on updates, a proxy polls for data frames at its frame rate.
// Grouped proxies are released together: the group fires UpdateEnd only
// after every requested member has caught up to the group counter.
package client
