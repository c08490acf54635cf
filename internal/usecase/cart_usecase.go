package usecase

import (
	"context"
	"errors"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/config"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"
	repo "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartUsecase は /carts の業務ロジックです。
// カートIDを知っていれば誰でも操作できる。
type CartUsecase struct {
	carts           repo.CartRepository
	cartItems       repo.CartItemRepository
	products        repo.ProductRepository
	tx              repo.TransactionManager
	inventoryPolicy string
}

func NewCartUsecase(
	carts repo.CartRepository,
	cartItems repo.CartItemRepository,
	products repo.ProductRepository,
	tx repo.TransactionManager,
	inventoryPolicy string,
) *CartUsecase {
	return &CartUsecase{
		carts:           carts,
		cartItems:       cartItems,
		products:        products,
		tx:              tx,
		inventoryPolicy: inventoryPolicy,
	}
}

type CartProductOutput struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CartItemOutput struct {
	ID        int64             `json:"id"`
	Product   CartProductOutput `json:"product"`
	Quantity  int64             `json:"quantity"`
	ItemTotal decimal.Decimal   `json:"item_total"`
}

// 合計は現在の商品価格で計算する
type CartOutput struct {
	ID         uuid.UUID        `json:"id"`
	Items      []CartItemOutput `json:"items"`
	TotalPrice decimal.Decimal  `json:"total_price"`
}

func toCartItemOutput(it model.CartItem) CartItemOutput {
	out := CartItemOutput{ID: it.ID, Quantity: it.Quantity, ItemTotal: decimal.Zero}
	if it.Product != nil {
		out.Product = CartProductOutput{
			ID:        it.Product.ID,
			Title:     it.Product.Title,
			UnitPrice: it.Product.UnitPrice,
		}
		out.ItemTotal = it.Product.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
	}
	return out
}

func toCartOutput(c model.Cart) CartOutput {
	items := make([]CartItemOutput, 0, len(c.Items))
	total := decimal.Zero
	for _, it := range c.Items {
		o := toCartItemOutput(it)
		total = total.Add(o.ItemTotal)
		items = append(items, o)
	}
	return CartOutput{ID: c.ID, Items: items, TotalPrice: total}
}

func (u *CartUsecase) CreateCart(ctx context.Context) (CartOutput, error) {
	c, err := u.carts.Create(ctx)
	if err != nil {
		return CartOutput{}, errDB
	}
	return toCartOutput(c), nil
}

func (u *CartUsecase) GetCart(ctx context.Context, cartID uuid.UUID) (CartOutput, error) {
	c, err := u.carts.FindByID(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartOutput{}, errNotFound
	}
	if err != nil {
		return CartOutput{}, errDB
	}
	return toCartOutput(c), nil
}

func (u *CartUsecase) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	err := u.carts.Delete(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound
	}
	if err != nil {
		return errDB
	}
	return nil
}

type AddCartItemInput struct {
	ProductID int64
	Quantity  int64
}

// 同一商品は数量加算。同時追加で一意制約にぶつかったら1回だけやり直す
func (u *CartUsecase) AddItem(ctx context.Context, cartID uuid.UUID, in AddCartItemInput) (CartItemOutput, error) {
	if in.Quantity < 1 {
		return CartItemOutput{}, validationError("quantity", "quantity must be >= 1")
	}

	out, err := u.addItemOnce(ctx, cartID, in)
	if errors.Is(err, repo.ErrConflict) {
		out, err = u.addItemOnce(ctx, cartID, in)
	}
	if errors.Is(err, repo.ErrConflict) {
		return CartItemOutput{}, errDB
	}
	return out, err
}

func (u *CartUsecase) addItemOnce(ctx context.Context, cartID uuid.UUID, in AddCartItemInput) (CartItemOutput, error) {
	var out CartItemOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Carts().FindByIDForUpdate(ctx, cartID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return errDB
		}

		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}

		existing, err := r.CartItems().FindByCartAndProductForUpdate(ctx, cartID, in.ProductID)
		switch {
		case err == nil:
			newQty := existing.Quantity + in.Quantity
			if err := u.checkInventory(p, newQty); err != nil {
				return err
			}
			if err := r.CartItems().UpdateQuantity(ctx, existing.ID, newQty); err != nil {
				return errDB
			}
			existing.Quantity = newQty
			existing.Product = &p
			out = toCartItemOutput(existing)
			return nil

		case errors.Is(err, repo.ErrNotFound):
			if err := u.checkInventory(p, in.Quantity); err != nil {
				return err
			}
			item, err := r.CartItems().Create(ctx, model.CartItem{
				CartID:    cartID,
				ProductID: in.ProductID,
				Quantity:  in.Quantity,
			})
			if errors.Is(err, repo.ErrConflict) {
				return repo.ErrConflict
			}
			if err != nil {
				return errDB
			}
			item.Product = &p
			out = toCartItemOutput(item)
			return nil

		default:
			return errDB
		}
	})
	if err != nil {
		return CartItemOutput{}, err
	}
	return out, nil
}

func (u *CartUsecase) UpdateItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, qty int64) (CartItemOutput, error) {
	if qty < 1 {
		return CartItemOutput{}, validationError("quantity", "quantity must be >= 1")
	}

	item, err := u.cartItems.FindByID(ctx, cartID, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartItemOutput{}, errNotFound
	}
	if err != nil {
		return CartItemOutput{}, errDB
	}
	if item.Product != nil {
		if err := u.checkInventory(*item.Product, qty); err != nil {
			return CartItemOutput{}, err
		}
	}

	err = u.cartItems.UpdateQuantity(ctx, itemID, qty)
	if errors.Is(err, repo.ErrNotFound) {
		return CartItemOutput{}, errNotFound
	}
	if err != nil {
		return CartItemOutput{}, errDB
	}

	item.Quantity = qty
	return toCartItemOutput(item), nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	err := u.cartItems.Delete(ctx, cartID, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound
	}
	if err != nil {
		return errDB
	}
	return nil
}

// enforce のときだけ在庫を超える数量を拒否する
func (u *CartUsecase) checkInventory(p model.Product, qty int64) error {
	if u.inventoryPolicy != config.InventoryPolicyEnforce {
		return nil
	}
	if qty > p.Inventory {
		return validationError("quantity", "quantity exceeds product inventory")
	}
	return nil
}
