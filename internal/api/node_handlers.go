package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"droply/internal/drive"
	"droply/internal/models"

	"github.com/go-chi/chi/v5"

	_ "droply/internal/batch"
)

type CreateFolderRequest struct {
	Name     string  `json:"name" example:"Holidays"`
	ParentID *string `json:"parent_id" example:"V1StGXR8_Z5jdHi6B-myT"`
	UserID   *int64  `json:"user_id,omitempty" example:"1"`
}

// @Summary      Create a folder
// @Description  Creates a new folder in the root or inside one of the caller's folders.
// @Tags         nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        folder  body      CreateFolderRequest  true  "Folder to create"
// @Success      201     {object}  models.Node
// @Failure      400     {string}  string "Empty name or invalid body"
// @Failure      401     {string}  string "Unauthorized"
// @Failure      404     {string}  string "Parent folder not found"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /folders [post]
func (s *Server) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req CreateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkPayloadUser(claims, req.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	node, err := s.drive.CreateFolder(r.Context(), claims.UserID, req.Name, req.ParentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

// @Summary      List nodes
// @Description  Lists the children of a folder (or of the root), newest first, filtered by tab.
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Param        parent_id  query     string  false  "Folder to list, root when omitted"
// @Param        filter     query     string  false  "all, starred or trash"  Enums(all, starred, trash)
// @Success      200        {array}   models.Node
// @Failure      400        {string}  string "Unknown filter"
// @Failure      401        {string}  string "Unauthorized"
// @Failure      404        {string}  string "Parent folder not found"
// @Failure      500        {string}  string "Internal Server Error"
// @Router       /nodes [get]
func (s *Server) ListNodesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	query := r.URL.Query()

	nodes, err := s.drive.ListNodes(r.Context(), claims.UserID, optionalString(query.Get("parent_id")), query.Get("filter"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nodes)
}

type UpdateNodeRequest struct {
	Name *string `json:"name" example:"renamed.jpg"`
	// An empty string moves the node to the root.
	ParentID *string `json:"parent_id" example:"V1StGXR8_Z5jdHi6B-myT"`
}

// @Summary      Rename or move a node
// @Description  Renames a node, moves it to another folder, or both. An empty parent_id moves the node to the root.
// @Tags         nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string             true  "Node ID"
// @Param        update  body      UpdateNodeRequest  true  "Fields to change"
// @Success      200     {object}  models.Node
// @Failure      400     {string}  string "Bad Request"
// @Failure      401     {string}  string "Unauthorized"
// @Failure      404     {string}  string "Node or target folder not found"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId} [patch]
func (s *Server) UpdateNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	var req UpdateNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	node, err := s.drive.Update(r.Context(), nodeID, claims.UserID, drive.NodeUpdate{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// @Summary      Star or unstar a node
// @Description  Flips the starred flag and returns the updated node.
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      200     {object}  models.Node
// @Failure      401     {string}  string "Unauthorized"
// @Failure      404     {string}  string "Node not found"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId}/star [patch]
func (s *Server) ToggleStarHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	node, err := s.drive.ToggleStar(r.Context(), chi.URLParam(r, "nodeId"), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// @Summary      Move a node to the trash or restore it
// @Description  Flips the trash flag and returns the updated node. Folders take their whole subtree along.
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      200     {object}  models.Node
// @Failure      401     {string}  string "Unauthorized"
// @Failure      404     {string}  string "Node not found"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId}/trash [patch]
func (s *Server) ToggleTrashHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	node, err := s.drive.ToggleTrash(r.Context(), chi.URLParam(r, "nodeId"), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// @Summary      Delete a node permanently
// @Description  Removes a node, and for folders everything inside it, and releases the stored files.
// @Tags         nodes
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      204     {null}    nil     "No Content"
// @Failure      401     {string}  string "Unauthorized"
// @Failure      404     {string}  string "Node not found"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId} [delete]
func (s *Server) DeleteNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	if err := s.drive.PermanentDelete(r.Context(), chi.URLParam(r, "nodeId"), claims.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Download a file
// @Description  Streams the contents of a single file.
// @Tags         nodes
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      200     {file}    file
// @Failure      400     {string}  string "Cannot download a folder"
// @Failure      401     {string}  string "Unauthorized"
// @Failure      404     {string}  string "File not found"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId}/download [get]
func (s *Server) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	node, content, err := s.drive.Open(r.Context(), chi.URLParam(r, "nodeId"), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": node.Name}))
	if node.ContentType != "" {
		w.Header().Set("Content-Type", node.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if node.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(node.Size, 10))
	}

	if _, err := io.Copy(w, content); err != nil {
		s.logger.WarnContext(r.Context(), "download interrupted", "node_id", node.ID, "error", err)
	}
}

type NodeIDsRequest struct {
	IDs    []string `json:"ids" example:"V1StGXR8_Z5jdHi6B-myT,a8Fs0qL3_rT6nBv1-xYzQ"`
	UserID *int64   `json:"user_id,omitempty" example:"1"`
}

// @Summary      Download several files as a zip archive
// @Description  Fetches every requested file the caller owns. Items that could not be added are counted in the X-Archive-Failed header. When nothing could be added the batch result is returned instead.
// @Tags         nodes
// @Accept       json
// @Produce      application/zip
// @Security     BearerAuth
// @Param        request  body      NodeIDsRequest  true  "Files to archive"
// @Success      200      {file}    file
// @Failure      400      {string}  string "Bad Request"
// @Failure      401      {string}  string "Unauthorized"
// @Failure      422      {object}  batch.Result
// @Failure      500      {string}  string "Internal Server Error"
// @Router       /nodes/archive [post]
func (s *Server) DownloadArchiveHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req NodeIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkPayloadUser(claims, req.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	archive, err := s.drive.OpenMany(r.Context(), claims.UserID, req.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if archive.Empty() {
		writeJSON(w, http.StatusUnprocessableEntity, archive.Result)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="droply-archive.zip"`)
	w.Header().Set("X-Archive-Failed", strconv.Itoa(len(archive.Result.Failed)))
	if _, err := archive.WriteTo(w); err != nil {
		s.logger.WarnContext(r.Context(), "archive download interrupted", "error", err)
	}
}

// @Summary      Run a bulk operation
// @Description  Applies star (toggle), trash, restore or delete to every id independently. Failures of single items do not affect the others.
// @Tags         nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        action   path      string          true  "Bulk action"  Enums(star, trash, restore, delete)
// @Param        request  body      NodeIDsRequest  true  "Nodes to process"
// @Success      200      {object}  batch.Result
// @Failure      400      {string}  string "Unknown action or no ids"
// @Failure      401      {string}  string "Unauthorized"
// @Failure      500      {string}  string "Internal Server Error"
// @Router       /nodes/batch/{action} [post]
func (s *Server) BatchHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	action, ok := drive.ParseBulkAction(chi.URLParam(r, "action"))
	if !ok {
		s.writeError(w, r, models.Invalid("unknown bulk action %q", chi.URLParam(r, "action")))
		return
	}

	var req NodeIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkPayloadUser(claims, req.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.drive.Bulk(r.Context(), claims.UserID, action, req.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// @Summary      Empty the trash
// @Description  Permanently deletes everything in the caller's trash.
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  batch.Result
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /trash [delete]
func (s *Server) EmptyTrashHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	result, err := s.drive.EmptyTrash(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to empty trash: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

