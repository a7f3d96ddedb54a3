// TouchBridge - relays touchpad gestures from a browser to a remote HID server.
package main

import "touchbridge/internal/cli"

func main() {
	cli.Execute()
}
