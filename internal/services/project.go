// project.go
//
// Project lifecycle and stored project documents
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of API-Estancia2.
// API-Estancia2 is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// API-Estancia2 is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with API-Estancia2.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"strings"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
	"github.com/DanielPPerez/API-Estancia2/internal/storage"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
)

// MaxDocumentSize bounds each uploaded project document
const MaxDocumentSize = 25 << 20

// Upload is one document received with a project form
type Upload struct {
	Kind        models.DocumentKind
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// ProjectInput carries project metadata; nil fields are left unchanged on update
type ProjectInput struct {
	Name        *string
	Description *string
	VideoLink   *string
	Files       []Upload
}

// ProjectService manages projects and their stored documents
type ProjectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	store    storage.DocumentStore
	resolver *RoleResolver
}

// NewProjectService creates a ProjectService
func NewProjectService(repos *repository.Repositories, store storage.DocumentStore, resolver *RoleResolver) *ProjectService {
	return &ProjectService{
		projects: repos.Projects,
		users:    repos.Users,
		store:    store,
		resolver: resolver,
	}
}

func projectNotFound(id uint) error {
	return types.NotFound(fmt.Sprintf("Project with id %d not found.", id), "project.notFound")
}

// ValidateUpload accepts documents declared as application/pdf up to MaxDocumentSize
func ValidateUpload(u Upload) error {
	if !u.Kind.Valid() {
		return types.InvalidArgument("Invalid file type.", "project.upload")
	}
	if mediaType, _, err := mime.ParseMediaType(u.ContentType); err != nil || mediaType != "application/pdf" {
		return types.InvalidArgument(fmt.Sprintf("Only PDF files are allowed for %s.", u.Kind), "project.upload")
	}
	if u.Size > MaxDocumentSize {
		return types.InvalidArgument(fmt.Sprintf("File for %s exceeds the 25MB limit.", u.Kind), "project.upload")
	}
	return nil
}

// Create stores the documents and inserts the project owned by ownerID
func (s *ProjectService) Create(ctx context.Context, ownerID uint, in ProjectInput) (*models.Project, error) {
	if ownerID == 0 || in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, types.InvalidArgument("User ID and Project Name are required.", "project.validation")
	}
	for _, f := range in.Files {
		if err := ValidateUpload(f); err != nil {
			return nil, err
		}
	}

	refs, err := s.storeAll(ctx, in.Files)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		IDUser: ownerID,
		Name:   strings.TrimSpace(*in.Name),
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.VideoLink != nil {
		project.VideoLink = strings.TrimSpace(*in.VideoLink)
	}
	for kind, ref := range refs {
		project.SetDocument(kind, &ref)
	}
	project.DeriveEstatus()

	if err := s.projects.Create(ctx, project); err != nil {
		s.deleteRefs(ctx, refs)
		return nil, err
	}
	return project, nil
}

// Get returns a project with its owner's username, nombre and email
func (s *ProjectService) Get(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, projectNotFound(id)
		}
		return nil, err
	}
	return project, nil
}

// List returns every project newest first
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

// ListByOwner returns the projects of one user, 404 when the user does not exist
func (s *ProjectService) ListByOwner(ctx context.Context, userID uint) ([]models.Project, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.NotFound(fmt.Sprintf("User with ID %d not found.", userID), "project.owner")
		}
		return nil, err
	}
	projects, err := s.projects.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

// Update replaces metadata and documents. Old documents are removed after the
// row is written; estatus is derived again from the resulting references.
func (s *ProjectService) Update(ctx context.Context, id, callerID uint, in ProjectInput) (*models.Project, error) {
	project, err := s.authorize(ctx, id, callerID, "update")
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, types.InvalidArgument("Project Name cannot be empty.", "project.validation")
		}
		fields["name"] = name
		project.Name = name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
		project.Description = *in.Description
	}
	if in.VideoLink != nil {
		link := strings.TrimSpace(*in.VideoLink)
		fields["video_link"] = link
		project.VideoLink = link
	}
	for _, f := range in.Files {
		if err := ValidateUpload(f); err != nil {
			return nil, err
		}
	}
	if len(fields) == 0 && len(in.Files) == 0 {
		return nil, types.InvalidArgument("No fields to update provided.", "project.validation")
	}

	refs, err := s.storeAll(ctx, in.Files)
	if err != nil {
		return nil, err
	}

	replaced := map[models.DocumentKind]string{}
	for kind, ref := range refs {
		if old := project.Document(kind); old != nil && *old != "" {
			replaced[kind] = *old
		}
		project.SetDocument(kind, &ref)
		fields[kind.Column()] = ref
	}
	fields["estatus"] = project.DeriveEstatus()

	if err := s.projects.Update(ctx, id, fields); err != nil {
		s.deleteRefs(ctx, refs)
		return nil, err
	}
	s.deleteRefs(ctx, replaced)
	return project, nil
}

// Delete removes the project with its evaluations, then its documents
func (s *ProjectService) Delete(ctx context.Context, id, callerID uint) error {
	project, err := s.authorize(ctx, id, callerID, "delete")
	if err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return projectNotFound(id)
		}
		return err
	}

	refs := map[models.DocumentKind]string{}
	for _, kind := range models.DocumentKinds {
		if ref := project.Document(kind); ref != nil && *ref != "" {
			refs[kind] = *ref
		}
	}
	s.deleteRefs(ctx, refs)
	return nil
}

// DocumentURL resolves the download URL of one project document
func (s *ProjectService) DocumentURL(ctx context.Context, id uint, fileType string) (string, error) {
	kind := models.DocumentKind(fileType)
	if !kind.Valid() {
		return "", types.InvalidArgument("Invalid file type.", "project.download")
	}
	project, err := s.projects.FindByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return "", types.NotFound("Project not found.", "project.download")
		}
		return "", err
	}
	ref := project.Document(kind)
	if ref == nil || *ref == "" {
		return "", types.NotFound("File not found for this project.", "project.download")
	}
	return s.store.URLFor(*ref), nil
}

func (s *ProjectService) authorize(ctx context.Context, id, callerID uint, action string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, projectNotFound(id)
		}
		return nil, err
	}
	if project.IDUser == callerID {
		return project, nil
	}
	isAdmin, err := s.resolver.IsAdmin(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, types.Forbidden(fmt.Sprintf("Forbidden: You are not authorized to %s this project.", action), "project.forbidden")
	}
	return project, nil
}

// storeAll saves every upload; on failure the ones already stored are removed
func (s *ProjectService) storeAll(ctx context.Context, files []Upload) (map[models.DocumentKind]string, error) {
	refs := make(map[models.DocumentKind]string, len(files))
	for _, f := range files {
		ref, err := s.storeOne(ctx, f)
		if err != nil {
			s.deleteRefs(ctx, refs)
			return nil, types.Unavailable("Failed to store project documents.", "project.storage").WithCause(err)
		}
		if prev, ok := refs[f.Kind]; ok {
			s.deleteRefs(ctx, map[models.DocumentKind]string{f.Kind: prev})
		}
		refs[f.Kind] = ref
	}
	return refs, nil
}

func (s *ProjectService) storeOne(ctx context.Context, f Upload) (string, error) {
	r, err := f.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	return s.store.Store(ctx, f.Kind, f.Filename, r)
}

// deleteRefs removes documents best-effort; failures are only logged
func (s *ProjectService) deleteRefs(ctx context.Context, refs map[models.DocumentKind]string) {
	for kind, ref := range refs {
		if err := s.store.Delete(ctx, ref); err != nil {
			log.Printf("Failed to delete %s document %s: %v", kind, ref, err)
		}
	}
}
