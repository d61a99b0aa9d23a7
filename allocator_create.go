package upload

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/upload/internal/utils"
	"github.com/vkngwrapper/arsenal/upload/memutils"
	"github.com/vkngwrapper/core/v2/common"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags int32

var allocatorCreateFlagsMapping = common.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	allocatorCreateFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return allocatorCreateFlagsMapping.FlagsToString(f)
}

const (
	// CreateSynchronized guards every allocator method with an internal mutex. By default the
	// allocator is not synchronized: it is meant to be owned by a single thread that records
	// and submits a frame's work.
	CreateSynchronized CreateFlags = 1 << iota
	// CreateSkipRetireClear leaves page memory untouched when a page is retired. By default
	// retired pages are zeroed so that stale data cannot leak into the next frame.
	CreateSkipRetireClear
)

func init() {
	CreateSynchronized.Register("CreateSynchronized")
	CreateSkipRetireClear.Register("CreateSkipRetireClear")
}

const (
	// DefaultPageSize is the value that is used as the PageSize when none is provided via
	// CreateOptions. It is equal to 64Kb.
	DefaultPageSize int = 64 * 1024
)

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags
	// PageSize is the size in bytes of every page. Every allocation must fit within a single
	// page. DefaultPageSize is used when this is 0.
	PageSize int
	// PreallocateBytes causes enough pages to hold this many bytes to be created up front.
	// They begin in the unused list.
	PreallocateBytes int
	// DebugLabel is applied to every page the allocator creates. It can be changed later
	// with Allocator.SetDebugLabel.
	DebugLabel string

	// MemoryCallbackOptions is an optional set of callbacks that will be executed when pages
	// are created and destroyed
	MemoryCallbackOptions *MemoryCallbackOptions
}

// New creates a new Allocator
//
// logger - Receives diagnostic output from the allocator. slog.Default() is used if it is nil
//
// device - Creates the pages and fences used by the allocator
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, device Device, options CreateOptions) (*Allocator, error) {
	if device == nil {
		return nil, errors.Wrap(InvalidRequestError, "an allocator requires a device")
	}
	if options.PageSize < 0 {
		return nil, errors.Wrapf(InvalidRequestError, "page size %d is negative", options.PageSize)
	}
	if options.PreallocateBytes < 0 {
		return nil, errors.Wrapf(InvalidRequestError, "preallocation size %d is negative", options.PreallocateBytes)
	}

	if logger == nil {
		logger = slog.Default()
	}

	allocator := &Allocator{
		logger:      logger,
		device:      device,
		createFlags: options.Flags,
		increment:   options.PageSize,
		debugLabel:  options.DebugLabel,
		mutex: utils.OptionalMutex{
			UseMutex: options.Flags&CreateSynchronized != 0,
		},
	}
	allocator.callbacks = memoryCallbacks{
		Callbacks: options.MemoryCallbackOptions,
		Allocator: allocator,
	}
	allocator.unusedPages.Init(pageListUnused)
	allocator.usedPages.Init(pageListUsed)
	allocator.pendingPages.Init(pageListPending)

	if allocator.increment == 0 {
		allocator.increment = DefaultPageSize
	}

	preallocatePageCount := options.PreallocateBytes / allocator.increment
	if options.PreallocateBytes%allocator.increment != 0 {
		preallocatePageCount++
	}

	allocator.mutex.Lock()
	for pageIndex := 0; pageIndex < preallocatePageCount; pageIndex++ {
		_, err := allocator.createPage()
		if err != nil {
			allocator.freePageList(&allocator.unusedPages)
			return nil, errors.CombineErrors(
				errors.Wrapf(err, "failed to preallocate %d bytes", options.PreallocateBytes),
				allocator.unlockAndFlushEvents(),
			)
		}
	}
	err := allocator.unlockAndFlushEvents()
	if err != nil {
		return nil, err
	}

	memutils.DebugValidate(allocator)

	return allocator, nil
}
