package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/memoria-cultural/memoria/constants"
	"github.com/memoria-cultural/memoria/internal/catalog"
	"github.com/memoria-cultural/memoria/internal/common"
	"github.com/memoria-cultural/memoria/internal/repository"
)

// handleGetOntology returns the active ontology schema.
func (s *Server) handleGetOntology(c *gin.Context) {
	schema, identifier := s.activeSchema()
	c.JSON(http.StatusOK, gin.H{
		"active_identifier": identifier,
		"config":            schema,
	})
}

// handleSetOntology swaps the active ontology schema.
func (s *Server) handleSetOntology(c *gin.Context) {
	var req struct {
		Identifier string `json:"ontology_identifier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, common.NewAppError("BAD_REQUEST", "invalid request body", common.ErrInvalidInput))
		return
	}
	if strings.TrimSpace(req.Identifier) == "" {
		handleError(c, common.NewAppError("BAD_REQUEST", "ontology_identifier is required", common.ErrInvalidInput))
		return
	}

	schema, err := s.loader.Load(req.Identifier)
	if err != nil {
		handleError(c, err)
		return
	}
	s.setActiveSchema(schema, req.Identifier)
	s.logger.Info("server.ontology.activated", "identifier", req.Identifier)

	c.JSON(http.StatusOK, gin.H{
		"status":             "sucesso",
		"message":            fmt.Sprintf("Ontologia ativa definida para '%s'.", req.Identifier),
		"new_config_summary": schema,
	})
}

// handleAvailableOntologies lists ontology files the loader can see.
func (s *Server) handleAvailableOntologies(c *gin.Context) {
	files := s.loader.Available(constants.AllowedOntologyExtensions)
	if files == nil {
		files = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"available_ontology_files": files})
}

// handleUploadOntology stores an uploaded ontology file for later activation.
func (s *Server) handleUploadOntology(c *gin.Context) {
	file, err := c.FormFile("ontology_file")
	if err != nil {
		handleError(c, common.NewAppError("BAD_REQUEST", "ontology_file is required", common.ErrInvalidInput))
		return
	}
	if !extAllowedList(file.Filename, constants.AllowedOntologyExtensions) {
		handleError(c, common.NewAppError("BAD_REQUEST", "Tipo de ficheiro não permitido.", common.ErrInvalidInput))
		return
	}

	if _, err := s.saveUpload(file, s.cfg.OntologyDir); err != nil {
		handleError(c, err)
		return
	}
	name := filepath.Base(file.Filename)
	c.JSON(http.StatusOK, gin.H{
		"filename": name,
		"message":  fmt.Sprintf("Ficheiro '%s' carregado.", name),
	})
}

// handleProcessDocument accepts a document upload and runs the synchronous
// extraction pipeline against the active schema.
func (s *Server) handleProcessDocument(c *gin.Context) {
	file, err := c.FormFile("document")
	if err != nil {
		handleError(c, common.NewAppError("BAD_REQUEST", "document is required", common.ErrInvalidInput))
		return
	}
	ext := constants.NormalizeExt(filepath.Ext(file.Filename))
	if _, ok := constants.AllowedDocExtensions[ext]; !ok {
		handleError(c, common.NewAppError("BAD_REQUEST", "Tipo de ficheiro não permitido.", common.ErrInvalidInput))
		return
	}

	fileID, err := s.saveUpload(file, s.cfg.UploadDir)
	if err != nil {
		handleError(c, err)
		return
	}

	schema, _ := s.activeSchema()
	result, err := s.processor.Process(c.Request.Context(), filepath.Join(s.cfg.UploadDir, fileID), schema)
	if err != nil {
		s.logger.Error("server.document.process_failed", "file_id", fileID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"file_id":  fileID,
			"filename": file.Filename,
			"status":   "error",
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file_id":  fileID,
		"filename": file.Filename,
		"status":   "completed",
		"data":     result,
	})
}

// handleRepositories lists the gateway's datasets in presentation form.
func (s *Server) handleRepositories(c *gin.Context) {
	bindings := s.gateway.ListRepositories(c.Request.Context())
	if len(bindings) == 0 {
		handleError(c, common.NewAppError("NOT_FOUND",
			"Nenhum repositório encontrado ou falha na comunicação com a API Guará.", common.ErrNotFound))
		return
	}

	type repo struct {
		Name      string `json:"name"`
		DatasetID string `json:"dataset_id"`
	}
	repos := make([]repo, 0, len(bindings))
	for _, b := range bindings {
		name := b["nome"].Value
		uri := b["uri"].Value
		if name == "" || uri == "" {
			continue
		}
		parts := strings.Split(uri, "#")
		repos = append(repos, repo{Name: name, DatasetID: parts[len(parts)-1]})
	}
	c.JSON(http.StatusOK, repos)
}

// handleSave enqueues a batch of items for asynchronous persistence.
func (s *Server) handleSave(c *gin.Context) {
	var req struct {
		Items          []catalog.CandidateItem `json:"items"`
		RepositoryName string                  `json:"repository_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, common.NewAppError("BAD_REQUEST", "invalid request body", common.ErrInvalidInput))
		return
	}
	if req.RepositoryName == "" {
		handleError(c, common.NewAppError("BAD_REQUEST", "repository_name is required", common.ErrInvalidInput))
		return
	}

	taskID, err := s.queue.Submit(c.Request.Context(), req.Items, s.repoConfigFor(req.RepositoryName))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
		"message": fmt.Sprintf("%d itens adicionados à fila de processamento.", len(req.Items)),
	})
}

// handlePersistenceStatus reports the state of one queued task.
func (s *Server) handlePersistenceStatus(c *gin.Context) {
	task, err := s.queue.Status(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		handleError(c, common.NewAppError("NOT_FOUND", "Tarefa não encontrada.", common.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, task)
}

// handleExportTask streams a task's results as an XLSX workbook.
func (s *Server) handleExportTask(c *gin.Context) {
	taskID := c.Param("task_id")
	data, err := s.exporter.ExportTaskXLSX(c.Request.Context(), taskID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="task-%s.xlsx"`, taskID))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// repoConfigFor derives the triple-store addressing for one dataset.
func (s *Server) repoConfigFor(dataset string) repository.RepoConfig {
	base := strings.TrimRight(s.tripleStoreURL, "/")
	return repository.RepoConfig{
		QueryURL:  fmt.Sprintf("%s/%s/query", base, dataset),
		UpdateURL: fmt.Sprintf("%s/%s/update", base, dataset),
		BaseURI:   fmt.Sprintf("%s/%s#", base, dataset),
	}
}

// saveUpload stores a multipart file under dir with a collision-proof name
// and returns that name.
func (s *Server) saveUpload(file *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", common.WrapError(err, "create upload dir")
	}
	safeName := uuid.New().String() + "_" + filepath.Base(file.Filename)

	src, err := file.Open()
	if err != nil {
		return "", common.WrapError(err, "open upload")
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, safeName))
	if err != nil {
		return "", common.WrapError(err, "create upload file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", common.WrapError(err, "write upload file")
	}
	return safeName, nil
}

func extAllowedList(name string, allowed []string) bool {
	ext := constants.NormalizeExt(filepath.Ext(name))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
