package desktop

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest      = "org.freedesktop.Notifications"
	notificationsPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod           = notificationsDest + ".Notify"
	getServerInfoMethod    = notificationsDest + ".GetServerInformation"
	defaultExpireTimeoutMs = int32(-1)
)

// DBusNotifier sends freedesktop notifications over the session bus.
type DBusNotifier struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	appName string
}

// NewDBusNotifier connects to the session bus.
func NewDBusNotifier(appName string) (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &DBusNotifier{
		conn:    conn,
		obj:     conn.Object(notificationsDest, notificationsPath),
		appName: appName,
	}, nil
}

func (n *DBusNotifier) Show(ctx context.Context, title, body string) error {
	call := n.obj.CallWithContext(ctx, notifyMethod, 0,
		n.appName,
		uint32(0),
		"",
		title,
		body,
		[]string{},
		map[string]dbus.Variant{},
		defaultExpireTimeoutMs,
	)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}
	return nil
}

// RequestPermission grants permission when a notification server answers
// on the bus and denies it otherwise.
func (n *DBusNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	var name, vendor, version, specVersion string
	err := n.obj.CallWithContext(ctx, getServerInfoMethod, 0).Store(&name, &vendor, &version, &specVersion)
	if err != nil {
		return PermissionDenied, nil
	}
	return PermissionGranted, nil
}

func (n *DBusNotifier) Close() error {
	return n.conn.Close()
}
