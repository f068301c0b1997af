package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	pz "github.com/weberc2/httpeasy"
	"github.com/weberc2/sfs/pkg/filesystem"
	. "github.com/weberc2/sfs/pkg/types"
)

// MaxBodySize bounds the request bodies accepted by the write route. The
// filesystem rejects anything over its own file size limit regardless.
const MaxBodySize = MiB

// API exposes a `FileSystem` over JSON routes. Paths in the URL are
// resolved from the root directory.
type API struct {
	FileSystem *filesystem.FileSystem
}

// Routes returns every route. Wrap them with `(*Authenticator).Protect` to
// require a bearer token.
func (api *API) Routes() []pz.Route {
	return []pz.Route{
		api.FormatRoute(),
		api.MountRoute(),
		api.FlushRoute(),
		api.UsageRoute(),
		api.CheckRoute(),
		api.ListRoute(),
		api.MkdirRoute(),
		api.CreateRoute(),
		api.WriteRoute(),
		api.ReadRoute(),
		api.DeleteRoute(),
		api.StatRoute(),
	}
}

func (api *API) FormatRoute() pz.Route {
	return pz.Route{
		Path:   "/api/format",
		Method: "POST",
		Handler: func(pz.Request) pz.Response {
			if err := api.FileSystem.Format(); err != nil {
				return errorResponse("formatting", "", err)
			}
			sb, err := api.FileSystem.Superblock()
			if err != nil {
				return errorResponse("formatting", "", err)
			}
			return pz.Created(pz.JSON(&sb), &logging{
				Message: "formatted image",
			})
		},
	}
}

func (api *API) MountRoute() pz.Route {
	return pz.Route{
		Path:   "/api/mount",
		Method: "POST",
		Handler: func(pz.Request) pz.Response {
			if err := api.FileSystem.Mount(); err != nil {
				return errorResponse("mounting", "", err)
			}
			sb, err := api.FileSystem.Superblock()
			if err != nil {
				return errorResponse("mounting", "", err)
			}
			return pz.Ok(pz.JSON(&sb), &logging{Message: "mounted image"})
		},
	}
}

func (api *API) FlushRoute() pz.Route {
	return pz.Route{
		Path:   "/api/flush",
		Method: "POST",
		Handler: func(pz.Request) pz.Response {
			if err := api.FileSystem.Flush(); err != nil {
				return errorResponse("flushing", "", err)
			}
			return pz.Ok(
				pz.JSON(&message{Message: "flushed"}),
				&logging{Message: "flushed image"},
			)
		},
	}
}

func (api *API) UsageRoute() pz.Route {
	return pz.Route{
		Path:   "/api/usage",
		Method: "GET",
		Handler: func(pz.Request) pz.Response {
			usage, err := api.FileSystem.Usage()
			if err != nil {
				return errorResponse("fetching usage", "", err)
			}
			return pz.Ok(pz.JSON(usage))
		},
	}
}

func (api *API) CheckRoute() pz.Route {
	return pz.Route{
		Path:   "/api/check",
		Method: "GET",
		Handler: func(pz.Request) pz.Response {
			if err := api.FileSystem.Check(); err != nil {
				return errorResponse("checking", "", err)
			}
			return pz.Ok(pz.JSON(&message{Message: "ok"}))
		},
	}
}

func (api *API) ListRoute() pz.Route {
	return pz.Route{
		Path:   "/api/dirs/{path:.*}",
		Method: "GET",
		Handler: func(r pz.Request) pz.Response {
			path := requestPath(r)
			entries, err := api.FileSystem.List(path)
			if err != nil {
				return errorResponse("listing", path, err)
			}
			return pz.Ok(pz.JSON(entries))
		},
	}
}

func (api *API) MkdirRoute() pz.Route {
	return pz.Route{
		Path:   "/api/dirs/{path:.*}",
		Method: "POST",
		Handler: func(r pz.Request) pz.Response {
			path := requestPath(r)
			if err := api.FileSystem.Mkdir(path); err != nil {
				return errorResponse("creating directory", path, err)
			}
			return api.created(path, "created directory")
		},
	}
}

func (api *API) CreateRoute() pz.Route {
	return pz.Route{
		Path:   "/api/files/{path:.*}",
		Method: "POST",
		Handler: func(r pz.Request) pz.Response {
			path := requestPath(r)
			if err := api.FileSystem.Create(path); err != nil {
				return errorResponse("creating file", path, err)
			}
			return api.created(path, "created file")
		},
	}
}

func (api *API) created(path, msg string) pz.Response {
	stat, err := api.FileSystem.Stat(path)
	if err != nil {
		return errorResponse(msg, path, err)
	}
	return pz.Created(pz.JSON(stat), &logging{Message: msg, Path: path})
}

func (api *API) WriteRoute() pz.Route {
	return pz.Route{
		Path:   "/api/files/{path:.*}",
		Method: "PUT",
		Handler: func(r pz.Request) pz.Response {
			path := requestPath(r)
			if r.Body == nil {
				return pz.BadRequest(
					pz.JSON(&errorBody{Error: "missing request body"}),
					&logging{Message: "missing request body", Path: path},
				)
			}
			data, err := io.ReadAll(
				io.LimitReader(r.Body, int64(MaxBodySize)+1),
			)
			if err != nil {
				return pz.BadRequest(
					pz.JSON(&errorBody{Error: "reading request body"}),
					&logging{
						Message: "reading request body",
						Path:    path,
						Error:   err.Error(),
					},
				)
			}
			if Byte(len(data)) > MaxBodySize {
				return errorResponse(
					"writing file",
					path,
					fmt.Errorf(
						"request body exceeds `%d` bytes: %w",
						MaxBodySize,
						FileTooLargeErr,
					),
				)
			}

			n, err := api.FileSystem.Write(path, data)
			if err != nil {
				return errorResponse("writing file", path, err)
			}
			return pz.Ok(
				pz.JSON(&written{Path: path, Bytes: n}),
				&logging{Message: "wrote file", Path: path},
			)
		},
	}
}

func (api *API) ReadRoute() pz.Route {
	return pz.Route{
		Path:   "/api/files/{path:.*}",
		Method: "GET",
		Handler: func(r pz.Request) pz.Response {
			path := requestPath(r)
			data, err := api.FileSystem.Read(path)
			if err != nil {
				return errorResponse("reading file", path, err)
			}
			// `[]byte` fields are base64-encoded by `encoding/json`
			return pz.Ok(pz.JSON(&struct {
				Data []byte `json:"data"`
			}{data}))
		},
	}
}

func (api *API) DeleteRoute() pz.Route {
	return pz.Route{
		Path:   "/api/files/{path:.*}",
		Method: "DELETE",
		Handler: func(r pz.Request) pz.Response {
			path := requestPath(r)
			if err := api.FileSystem.Delete(path); err != nil {
				return errorResponse("deleting", path, err)
			}
			return pz.Ok(
				pz.JSON(&message{Message: "deleted"}),
				&logging{Message: "deleted", Path: path},
			)
		},
	}
}

func (api *API) StatRoute() pz.Route {
	return pz.Route{
		Path:   "/api/stat/{path:.*}",
		Method: "GET",
		Handler: func(r pz.Request) pz.Response {
			path := requestPath(r)
			stat, err := api.FileSystem.Stat(path)
			if err != nil {
				return errorResponse("stat", path, err)
			}
			return pz.Ok(pz.JSON(stat))
		},
	}
}

func requestPath(r pz.Request) string {
	return "/" + strings.TrimPrefix(r.Vars["path"], "/")
}

type message struct {
	Message string `json:"message"`
}

type written struct {
	Path  string `json:"path"`
	Bytes Byte   `json:"bytes"`
}

type errorBody struct {
	Error string `json:"error"`
}

type logging struct {
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

var statuses = []struct {
	err    error
	status int
}{
	{NotFoundErr, http.StatusNotFound},
	{AlreadyExistsErr, http.StatusConflict},
	{DirNotEmptyErr, http.StatusConflict},
	{NotADirErr, http.StatusBadRequest},
	{IsADirErr, http.StatusBadRequest},
	{InvalidNameErr, http.StatusBadRequest},
	{NameTooLongErr, http.StatusBadRequest},
	{FileTooLargeErr, http.StatusRequestEntityTooLarge},
	{OutOfBlocksErr, http.StatusInsufficientStorage},
	{OutOfInodesErr, http.StatusInsufficientStorage},
	{NotMountedErr, http.StatusPreconditionFailed},
	{NoImageErr, http.StatusPreconditionFailed},
	{CorruptImageErr, http.StatusUnprocessableEntity},
}

// errorResponse maps the error's kind to a status. The client sees only the
// kind; the full chain goes to the log.
func errorResponse(activity, path string, err error) pz.Response {
	httpErr := &pz.HTTPError{
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
	}
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			httpErr.Status = s.status
			httpErr.Message = s.err.Error()
			break
		}
	}
	return pz.Response{
		Status: httpErr.Status,
		Data:   pz.JSON(&errorBody{Error: httpErr.Message}),
	}.WithLogging(&logging{
		Message: activity,
		Path:    path,
		Error:   err.Error(),
	})
}
