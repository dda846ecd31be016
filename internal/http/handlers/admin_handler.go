package handlers

import (
	"github.com/gofiber/fiber/v2"

	"continental/internal/errs"
	applog "continental/internal/log"
	"continental/internal/services"
	"continental/internal/validate"
)

type AdminHandler struct {
	Admin *services.AdminService
}

func pathID(c *fiber.Ctx, what string) (int64, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return 0, errs.Newf(errs.CodeValidation, "Invalid %s id", what)
	}
	return id, nil
}

// ---------- categories ----------

// GET /api/admin/categories
func (h *AdminHandler) Categories(c *fiber.Ctx) error {
	out, err := h.Admin.Categories(c.UserContext())
	if err != nil {
		return apiError(c, "admin.categories.list.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "categories": out})
}

// POST /api/admin/categories
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "admin.categories.create.fail", err)
	}
	cat, err := h.Admin.CreateCategory(c.UserContext(), in)
	if err != nil {
		return apiError(c, "admin.categories.create.fail", err)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "Category created successfully", "category": cat})
}

// PUT /api/admin/categories/:id
func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "category")
	if err != nil {
		return apiError(c, "admin.categories.update.fail", err)
	}
	var in services.CategoryInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "admin.categories.update.fail", err)
	}
	cat, err := h.Admin.UpdateCategory(c.UserContext(), id, in)
	if err != nil {
		return apiError(c, "admin.categories.update.fail", err)
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category_id": id, "name": cat.Name})
	return c.JSON(fiber.Map{"success": true, "message": "Category updated successfully", "category": cat})
}

// DELETE /api/admin/categories/:id
func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "category")
	if err != nil {
		return apiError(c, "admin.categories.delete.fail", err)
	}
	if err := h.Admin.DeleteCategory(c.UserContext(), id); err != nil {
		return apiError(c, "admin.categories.delete.fail", err)
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category_id": id})
	return c.JSON(fiber.Map{"success": true, "message": "Category deleted successfully"})
}

// ---------- materials ----------

// GET /api/admin/materials
func (h *AdminHandler) Materials(c *fiber.Ctx) error {
	out, err := h.Admin.Materials(c.UserContext())
	if err != nil {
		return apiError(c, "admin.materials.list.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "materials": out})
}

// GET /api/admin/materials/:id
func (h *AdminHandler) Material(c *fiber.Ctx) error {
	id, err := pathID(c, "material")
	if err != nil {
		return apiError(c, "admin.materials.get.fail", err)
	}
	m, err := h.Admin.Material(c.UserContext(), id)
	if err != nil {
		return apiError(c, "admin.materials.get.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "material": m})
}

// POST /api/admin/materials
func (h *AdminHandler) CreateMaterial(c *fiber.Ctx) error {
	var in services.MaterialInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "admin.materials.create.fail", err)
	}
	m, err := h.Admin.CreateMaterial(c.UserContext(), in)
	if err != nil {
		return apiError(c, "admin.materials.create.fail", err)
	}
	applog.Audit(c, "admin.materials.create", map[string]any{"material_id": m.ID, "name": m.Name})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "Material created successfully", "material": m})
}

// PUT /api/admin/materials/:id
func (h *AdminHandler) UpdateMaterial(c *fiber.Ctx) error {
	id, err := pathID(c, "material")
	if err != nil {
		return apiError(c, "admin.materials.update.fail", err)
	}
	var in services.MaterialInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "admin.materials.update.fail", err)
	}
	m, err := h.Admin.UpdateMaterial(c.UserContext(), id, in)
	if err != nil {
		return apiError(c, "admin.materials.update.fail", err)
	}
	applog.Audit(c, "admin.materials.update", map[string]any{"material_id": id})
	return c.JSON(fiber.Map{"success": true, "message": "Material updated successfully", "material": m})
}

// DELETE /api/admin/materials/:id
func (h *AdminHandler) DeleteMaterial(c *fiber.Ctx) error {
	id, err := pathID(c, "material")
	if err != nil {
		return apiError(c, "admin.materials.delete.fail", err)
	}
	if err := h.Admin.DeleteMaterial(c.UserContext(), id); err != nil {
		return apiError(c, "admin.materials.delete.fail", err)
	}
	applog.Audit(c, "admin.materials.delete", map[string]any{"material_id": id})
	return c.JSON(fiber.Map{"success": true, "message": "Material deleted successfully"})
}

// ---------- products ----------

// GET /api/admin/products
func (h *AdminHandler) Products(c *fiber.Ctx) error {
	out, err := h.Admin.Products(c.UserContext())
	if err != nil {
		return apiError(c, "admin.products.list.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "products": out})
}

// GET /api/admin/products/:id
func (h *AdminHandler) Product(c *fiber.Ctx) error {
	id, err := pathID(c, "product")
	if err != nil {
		return apiError(c, "admin.products.get.fail", err)
	}
	p, err := h.Admin.Product(c.UserContext(), id)
	if err != nil {
		return apiError(c, "admin.products.get.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "product": p})
}

// POST /api/admin/products
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "admin.products.create.fail", err)
	}
	id, err := h.Admin.CreateProduct(c.UserContext(), in)
	if err != nil {
		return apiError(c, "admin.products.create.fail", err)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": id, "slug": in.Slug})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "Product created successfully", "productId": id})
}

// PUT /api/admin/products/:id
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := pathID(c, "product")
	if err != nil {
		return apiError(c, "admin.products.update.fail", err)
	}
	var in services.ProductInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "admin.products.update.fail", err)
	}
	if err := h.Admin.UpdateProduct(c.UserContext(), id, in); err != nil {
		return apiError(c, "admin.products.update.fail", err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id, "tiers": len(in.Pricing)})
	return c.JSON(fiber.Map{"success": true, "message": "Product updated successfully"})
}

// DELETE /api/admin/products/:id
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := pathID(c, "product")
	if err != nil {
		return apiError(c, "admin.products.delete.fail", err)
	}
	if err := h.Admin.DeleteProduct(c.UserContext(), id); err != nil {
		return apiError(c, "admin.products.delete.fail", err)
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"success": true, "message": "Product deleted successfully"})
}

type checkSlugInput struct {
	Slug      string `json:"slug"`
	ExcludeID int64  `json:"excludeId"`
}

// POST /api/admin/products/check-slug
func (h *AdminHandler) CheckSlug(c *fiber.Ctx) error {
	var in checkSlugInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "admin.products.check_slug.fail", err)
	}
	exists, err := h.Admin.SlugTaken(c.UserContext(), in.Slug, in.ExcludeID)
	if err != nil {
		return apiError(c, "admin.products.check_slug.fail", err)
	}
	return c.JSON(fiber.Map{"exists": exists, "slug": in.Slug})
}

// ---------- homepage ----------

// GET /api/admin/homepage
func (h *AdminHandler) Homepage(c *fiber.Ctx) error {
	items, err := h.Admin.HomepageItems(c.UserContext())
	if err != nil {
		return apiError(c, "admin.homepage.list.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "items": items})
}

// POST /api/admin/homepage
func (h *AdminHandler) ReplaceSection(c *fiber.Ctx) error {
	var in services.HomepageInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "admin.homepage.update.fail", err)
	}
	if err := h.Admin.ReplaceSection(c.UserContext(), in); err != nil {
		return apiError(c, "admin.homepage.update.fail", err)
	}
	applog.Audit(c, "admin.homepage.update", map[string]any{"section": in.SectionKey, "items": len(in.ItemIDs)})
	return c.JSON(fiber.Map{"success": true, "message": "Configuration updated"})
}

// ---------- uploads ----------

// POST /api/upload (multipart field "file")
func (h *AdminHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apiError(c, "admin.upload.fail", errs.Wrap(errs.CodeValidation, err, "No file uploaded"))
	}
	f, err := fh.Open()
	if err != nil {
		return apiError(c, "admin.upload.fail", errs.Wrap(errs.CodeInternal, err, "open upload"))
	}
	defer f.Close()

	saved, err := h.Admin.Upload(fh.Filename, f)
	if err != nil {
		return apiError(c, "admin.upload.fail", err)
	}
	applog.Audit(c, "admin.upload", map[string]any{"url": saved.URL, "size": saved.Size, "type": saved.ContentType})
	return c.JSON(fiber.Map{"success": true, "url": saved.URL})
}
