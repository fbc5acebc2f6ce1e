package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"facebank/internal/capture/mocks"
	"facebank/internal/face"
	"facebank/internal/platform/logger"
	dErrors "facebank/pkg/domain-errors"
)

type DeviceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockProvider
	device   *Device
}

func TestDeviceSuite(t *testing.T) {
	suite.Run(t, new(DeviceSuite))
}

func (s *DeviceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.provider = mocks.NewMockProvider(s.ctrl)
	var err error
	s.device, err = NewDevice(s.provider, WithLogger(logger.Discard()))
	s.Require().NoError(err)
}

func (s *DeviceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DeviceSuite) TestOpensOnceAndClosesAfterLastRelease() {
	ctx := context.Background()
	s.provider.EXPECT().Open(gomock.Any()).Return(nil).Times(1)

	releaseA, err := s.device.Acquire(ctx)
	s.Require().NoError(err)
	releaseB, err := s.device.Acquire(ctx)
	s.Require().NoError(err)

	releaseA()
	releaseA()
	s.True(s.device.Active())

	s.provider.EXPECT().Close().Return(nil).Times(1)
	releaseB()
	s.False(s.device.Active())
}

func (s *DeviceSuite) TestOpenFailureIsCaptureUnavailable() {
	s.provider.EXPECT().Open(gomock.Any()).Return(errors.New("no camera"))

	release, err := s.device.Acquire(context.Background())

	s.Nil(release)
	s.True(dErrors.HasCode(err, dErrors.CodeCaptureUnavailable))
	s.False(s.device.Active())
}

func (s *DeviceSuite) TestCaptureRequiresLease() {
	_, err := s.device.Capture(context.Background())

	s.ErrorIs(err, ErrNotAcquired)
	s.True(dErrors.HasCode(err, dErrors.CodeCaptureUnavailable))
}

func (s *DeviceSuite) TestCapture() {
	ctx := context.Background()
	s.provider.EXPECT().Open(gomock.Any()).Return(nil)
	release, err := s.device.Acquire(ctx)
	s.Require().NoError(err)

	s.Run("returns sample", func() {
		sample, _ := face.NewSample([]byte("frame"), time.Now())
		s.provider.EXPECT().Capture(gomock.Any()).Return(sample, nil)

		got, err := s.device.Capture(ctx)
		s.Require().NoError(err)
		s.Equal(sample.ID, got.ID)
	})

	s.Run("empty frame is unavailable", func() {
		s.provider.EXPECT().Capture(gomock.Any()).Return(face.Sample{}, nil)

		_, err := s.device.Capture(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeCaptureUnavailable))
	})

	s.Run("provider error is unavailable", func() {
		s.provider.EXPECT().Capture(gomock.Any()).Return(face.Sample{}, errors.New("frame dropped"))

		_, err := s.device.Capture(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeCaptureUnavailable))
	})

	s.provider.EXPECT().Close().Return(nil)
	release()
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.jpg")

	p := NewFileProvider(path)
	require.Error(t, p.Open(context.Background()), "missing file")
	require.Error(t, NewFileProvider(dir).Open(context.Background()), "directory")

	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o600))
	require.NoError(t, p.Open(context.Background()))

	sample, err := p.Capture(context.Background())
	require.NoError(t, err)
	assert.False(t, sample.IsZero())

	require.NoError(t, os.WriteFile(path, nil, 0o600))
	_, err = p.Capture(context.Background())
	assert.ErrorIs(t, err, face.ErrEmptySample)
	assert.NoError(t, p.Close())
}

func TestScriptedProvider_WithDevice(t *testing.T) {
	p := NewScriptedProvider([]byte("a"), []byte("b"))
	d, err := NewDevice(p, WithLogger(logger.Discard()))
	require.NoError(t, err)

	release, err := d.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, p.IsOpen())

	first, err := d.Capture(context.Background())
	require.NoError(t, err)
	second, err := d.Capture(context.Background())
	require.NoError(t, err)
	third, err := d.Capture(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Data, second.Data)
	assert.Equal(t, second.Data, third.Data)
	assert.NotEqual(t, second.ID, third.ID)

	release()
	assert.False(t, p.IsOpen())
	assert.Equal(t, 1, p.Opens())
}

func TestNewDevice_RequiresProvider(t *testing.T) {
	_, err := NewDevice(nil)
	assert.Error(t, err)
}
