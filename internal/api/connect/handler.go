// Package connect provides Connect RPC service implementations.
package connect

import (
	"net/http"

	"connectrpc.com/connect"
)

// SlideshowServiceName is the fully-qualified name of the slideshow service.
const SlideshowServiceName = "urlshow.v1.SlideshowService"

// Procedure paths of SlideshowService.
const (
	GetStatusProcedure        = "/" + SlideshowServiceName + "/GetStatus"
	StartProcedure            = "/" + SlideshowServiceName + "/Start"
	StopProcedure             = "/" + SlideshowServiceName + "/Stop"
	TogglePlaybackProcedure   = "/" + SlideshowServiceName + "/TogglePlayback"
	ResumeProcedure           = "/" + SlideshowServiceName + "/Resume"
	ActivityProcedure         = "/" + SlideshowServiceName + "/Activity"
	EnterFullscreenProcedure  = "/" + SlideshowServiceName + "/EnterFullscreen"
	ExitFullscreenProcedure   = "/" + SlideshowServiceName + "/ExitFullscreen"
	ToggleFullscreenProcedure = "/" + SlideshowServiceName + "/ToggleFullscreen"
	EscapeProcedure           = "/" + SlideshowServiceName + "/Escape"
	AddURLsProcedure          = "/" + SlideshowServiceName + "/AddURLs"
	RemoveURLProcedure        = "/" + SlideshowServiceName + "/RemoveURL"
	MoveURLProcedure          = "/" + SlideshowServiceName + "/MoveURL"
	SetDisplayTimeProcedure   = "/" + SlideshowServiceName + "/SetDisplayTime"
	SetLoopingProcedure       = "/" + SlideshowServiceName + "/SetLooping"
	ShowAtProcedure           = "/" + SlideshowServiceName + "/ShowAt"
	GetShareLinkProcedure     = "/" + SlideshowServiceName + "/GetShareLink"
	ExportProcedure           = "/" + SlideshowServiceName + "/Export"
	ImportProcedure           = "/" + SlideshowServiceName + "/Import"
	ClearSettingsProcedure    = "/" + SlideshowServiceName + "/ClearSettings"
	SubscribeProcedure        = "/" + SlideshowServiceName + "/Subscribe"
)

// NewSlideshowServiceHandler builds an HTTP handler serving every procedure
// of svc. It returns the path on which to mount the handler.
func NewSlideshowServiceHandler(svc *SlideshowService, opts ...connect.HandlerOption) (string, http.Handler) {
	handlers := map[string]http.Handler{
		GetStatusProcedure:        connect.NewUnaryHandler(GetStatusProcedure, svc.GetStatus, opts...),
		StartProcedure:            connect.NewUnaryHandler(StartProcedure, svc.Start, opts...),
		StopProcedure:             connect.NewUnaryHandler(StopProcedure, svc.Stop, opts...),
		TogglePlaybackProcedure:   connect.NewUnaryHandler(TogglePlaybackProcedure, svc.TogglePlayback, opts...),
		ResumeProcedure:           connect.NewUnaryHandler(ResumeProcedure, svc.Resume, opts...),
		ActivityProcedure:         connect.NewUnaryHandler(ActivityProcedure, svc.Activity, opts...),
		EnterFullscreenProcedure:  connect.NewUnaryHandler(EnterFullscreenProcedure, svc.EnterFullscreen, opts...),
		ExitFullscreenProcedure:   connect.NewUnaryHandler(ExitFullscreenProcedure, svc.ExitFullscreen, opts...),
		ToggleFullscreenProcedure: connect.NewUnaryHandler(ToggleFullscreenProcedure, svc.ToggleFullscreen, opts...),
		EscapeProcedure:           connect.NewUnaryHandler(EscapeProcedure, svc.Escape, opts...),
		AddURLsProcedure:          connect.NewUnaryHandler(AddURLsProcedure, svc.AddURLs, opts...),
		RemoveURLProcedure:        connect.NewUnaryHandler(RemoveURLProcedure, svc.RemoveURL, opts...),
		MoveURLProcedure:          connect.NewUnaryHandler(MoveURLProcedure, svc.MoveURL, opts...),
		SetDisplayTimeProcedure:   connect.NewUnaryHandler(SetDisplayTimeProcedure, svc.SetDisplayTime, opts...),
		SetLoopingProcedure:       connect.NewUnaryHandler(SetLoopingProcedure, svc.SetLooping, opts...),
		ShowAtProcedure:           connect.NewUnaryHandler(ShowAtProcedure, svc.ShowAt, opts...),
		GetShareLinkProcedure:     connect.NewUnaryHandler(GetShareLinkProcedure, svc.GetShareLink, opts...),
		ExportProcedure:           connect.NewUnaryHandler(ExportProcedure, svc.Export, opts...),
		ImportProcedure:           connect.NewUnaryHandler(ImportProcedure, svc.Import, opts...),
		ClearSettingsProcedure:    connect.NewUnaryHandler(ClearSettingsProcedure, svc.ClearSettings, opts...),
		SubscribeProcedure:        connect.NewServerStreamHandler(SubscribeProcedure, svc.Subscribe, opts...),
	}

	return "/" + SlideshowServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
