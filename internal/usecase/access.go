package usecase

import "github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/domain/model"

type operation string

const (
	opListOrders        operation = "list_orders"
	opViewOrder         operation = "view_order"
	opUpdateOrderStatus operation = "update_order_status"
	opDeleteOrder       operation = "delete_order"
	opPayOrder          operation = "pay_order"
)

type access int

const (
	accessDeny access = iota
	accessOwn         // 自分の注文だけ
	accessAll
)

// (操作, ロール) → 権限。表に無い組み合わせは拒否
var accessTable = map[operation]map[model.Role]access{
	opListOrders: {
		model.RoleUser:  accessOwn,
		model.RoleAdmin: accessAll,
	},
	opViewOrder: {
		model.RoleUser:  accessOwn,
		model.RoleAdmin: accessAll,
	},
	opUpdateOrderStatus: {
		model.RoleAdmin: accessAll,
	},
	opDeleteOrder: {
		model.RoleAdmin: accessAll,
	},
	opPayOrder: {
		model.RoleUser:  accessOwn,
		model.RoleAdmin: accessOwn,
	},
}

func resolveAccess(op operation, role model.Role) access {
	return accessTable[op][role]
}

// ロールごとの注文の見せ方
var orderPresenters = map[model.Role]func(model.Order) OrderOutput{
	model.RoleUser:  presentCustomerOrder,
	model.RoleAdmin: presentAdminOrder,
}

func presenterFor(role model.Role) func(model.Order) OrderOutput {
	if p, ok := orderPresenters[role]; ok {
		return p
	}
	return presentCustomerOrder
}
