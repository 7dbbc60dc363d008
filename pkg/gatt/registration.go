package gatt

import (
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

type publication struct {
	path  dbus.ObjectPath
	iface string
}

// treeBuilder publishes objects for one registration pass and remembers
// what it published so a failed pass can be undone.
type treeBuilder struct {
	dir       ObjectDirectory
	logger    *logrus.Logger
	published []publication
}

func (b *treeBuilder) publish(path dbus.ObjectPath, iface string, obj interface{}, props Properties) error {
	if err := b.dir.Publish(path, iface, obj, props); err != nil {
		b.logger.WithFields(logrus.Fields{
			"path":      path,
			"interface": iface,
		}).WithError(err).Error("publish failed")
		return &RegistrationError{Step: StepPublish, Path: path, Err: err}
	}
	b.published = append(b.published, publication{path: path, iface: iface})
	return nil
}

// abort undoes the pass when rollback is set and returns err.
func (b *treeBuilder) abort(rollback bool, err error) error {
	if !rollback || len(b.published) == 0 {
		return err
	}
	if rerr := unpublishAll(b.dir, b.published, b.logger); rerr != nil {
		b.logger.WithError(rerr).Warn("rollback incomplete")
	}
	b.published = nil
	return err
}

// unpublishAll removes published objects in reverse publication order.
func unpublishAll(dir ObjectDirectory, published []publication, logger *logrus.Logger) error {
	var errs []error
	for i := len(published) - 1; i >= 0; i-- {
		p := published[i]
		if err := dir.Unpublish(p.path, p.iface); err != nil {
			logger.WithFields(logrus.Fields{
				"path":      p.path,
				"interface": p.iface,
			}).WithError(err).Warn("unpublish failed")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
