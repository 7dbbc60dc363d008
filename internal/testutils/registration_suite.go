package testutils

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/bluegatt/internal/objectdir"
	"github.com/srg/bluegatt/pkg/gatt"
	"github.com/stretchr/testify/suite"
)

// DefaultRoot is the application root used by RegistrationSuite.
const DefaultRoot = "/com/example"

// RegistrationSuite provides a reusable testify suite that registers GATT
// applications against an in-memory object directory and a mock registrar.
//
// Basic usage (default battery service):
//
//	type MySuite struct {
//	    testutils.RegistrationSuite
//	}
//
//	func TestMySuite(t *testing.T) {
//	    suite.Run(t, new(MySuite))
//	}
//
// Custom application:
//
//	func (s *MySuite) SetupTest() {
//	    s.RegistrationSuite.SetupTest()
//	    s.Builder.WithService("180D").WithCharacteristic("2A37", "read", nil)
//	}
type RegistrationSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	Directory *objectdir.Memory
	Registrar *MockRegistrar
	Builder   *ApplicationBuilder

	Root        string
	TestTimeout time.Duration
}

// SetupSuite is called once before all tests in the suite.
func (s *RegistrationSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.TestTimeout = 5 * time.Second
}

// SetupTest gives every test a fresh directory, registrar and builder.
func (s *RegistrationSuite) SetupTest() {
	s.Directory = objectdir.New()
	s.Registrar = NewMockRegistrar()
	s.Builder = NewApplicationBuilder()
	s.Root = DefaultRoot
}

// Register builds the declared application, or a single battery service
// when nothing was declared, and registers it.
func (s *RegistrationSuite) Register(opts ...gatt.Option) (*gatt.ApplicationHandle, error) {
	decls := s.Builder.Build()
	if len(decls) == 0 {
		decls = NewApplicationBuilder().
			WithService("180F").
			WithCharacteristic("2A19", "read,notify", []byte{100}).
			Build()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.TestTimeout)
	defer cancel()

	opts = append([]gatt.Option{gatt.WithLogger(s.Logger)}, opts...)
	return gatt.RegisterNew(ctx, s.Directory, s.Registrar, s.Root, decls, opts...)
}

// MustRegister is Register with the registrar accepting every call.
func (s *RegistrationSuite) MustRegister(opts ...gatt.Option) *gatt.ApplicationHandle {
	s.Registrar.AcceptAll()
	app, err := s.Register(opts...)
	s.Require().NoError(err, "registration MUST succeed")
	return app
}
